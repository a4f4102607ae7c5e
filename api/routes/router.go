package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prepdeckhq/prepdeck-backend/api/controllers"
	"github.com/prepdeckhq/prepdeck-backend/api/middleware"
	"github.com/prepdeckhq/prepdeck-backend/internal/notifications"
	"github.com/prepdeckhq/prepdeck-backend/pkg/config"
	"github.com/prepdeckhq/prepdeck-backend/pkg/db"
	"github.com/prepdeckhq/prepdeck-backend/pkg/logger"
	"github.com/prepdeckhq/prepdeck-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	notificationsService notifications.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
