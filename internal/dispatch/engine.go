package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeckhq/prepdeck-backend/internal/mailer"
	"github.com/prepdeckhq/prepdeck-backend/pkg/config"
	"github.com/prepdeckhq/prepdeck-backend/pkg/db/models"
	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
	pkgerrors "github.com/prepdeckhq/prepdeck-backend/pkg/errors"
	"github.com/prepdeckhq/prepdeck-backend/pkg/logger"
	"github.com/prepdeckhq/prepdeck-backend/pkg/metrics"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Pass label values used for logging and metrics.
const (
	passAlerts    = "alerts"
	passReminders = "reminders"
	passDigests   = "digests"
)

type inventoryStore interface {
	ListTenantIDsWithApprovedSessions(ctx context.Context) ([]uuid.UUID, error)
	LatestApprovedSessions(ctx context.Context, tenantID uuid.UUID) ([]models.InventorySession, error)
	ListSessionItems(ctx context.Context, sessionID uuid.UUID) ([]models.SessionItem, error)
}

type reminderStore interface {
	ListEnabled(ctx context.Context) ([]models.Reminder, error)
}

type preferenceStore interface {
	GetForUser(ctx context.Context, tenantID, userID uuid.UUID) (*models.NotificationPreference, error)
	ListDigestSubscribed(ctx context.Context) ([]models.NotificationPreference, error)
	GetAlertPolicy(ctx context.Context, tenantID uuid.UUID) (*models.AlertPolicy, error)
}

type notificationStore interface {
	CreateDeduped(ctx context.Context, notification *models.Notification) (bool, error)
	ExistsSince(ctx context.Context, tenantID, userID uuid.UUID, kind enums.NotificationType, since time.Time) (bool, error)
	ListPendingDigest(ctx context.Context, tenantID, userID uuid.UUID, since time.Time) ([]models.Notification, error)
	MarkEmailed(ctx context.Context, ids []uuid.UUID, now time.Time) (int64, error)
}

type userStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type tenantStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type recipientResolver interface {
	Resolve(ctx context.Context, tenantID uuid.UUID, mode enums.RecipientsMode, custom []uuid.UUID) ([]uuid.UUID, error)
}

type triggerScheduler interface {
	ReminderDue(reminder models.Reminder, now time.Time) (bool, error)
	DigestDue(pref models.NotificationPreference, now time.Time) (bool, error)
}

// TickSummary reports what one engine invocation accomplished.
type TickSummary struct {
	AlertsDispatched    int      `json:"alerts_dispatched"`
	RemindersDispatched int      `json:"reminders_dispatched"`
	DigestsSent         int      `json:"digests_sent"`
	Results             []string `json:"results"`

	mu sync.Mutex
}

func (s *TickSummary) addAlerts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AlertsDispatched += n
}

func (s *TickSummary) addReminders(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RemindersDispatched += n
}

func (s *TickSummary) addDigests(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DigestsSent += n
}

func (s *TickSummary) record(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Results = append(s.Results, fmt.Sprintf(format, args...))
}

// Params configure the dispatch engine.
type Params struct {
	Logger        *logger.Logger
	Inventory     inventoryStore
	Reminders     reminderStore
	Preferences   preferenceStore
	Notifications notificationStore
	Users         userStore
	Tenants       tenantStore
	Resolver      recipientResolver
	Scheduler     triggerScheduler
	Mailer        mailer.Mailer
	Metrics       *metrics.DispatchMetrics
	Config        config.DispatchConfig
	Now           func() time.Time
}

// Engine runs the three notification passes over the whole platform: low-stock
// alerts, scheduled reminders, and daily digests. Each pass is idempotent per
// tick and isolates unit failures.
type Engine struct {
	logg          *logger.Logger
	inventory     inventoryStore
	reminders     reminderStore
	preferences   preferenceStore
	notifications notificationStore
	users         userStore
	tenants       tenantStore
	resolver      recipientResolver
	scheduler     triggerScheduler
	mail          mailer.Mailer
	metrics       *metrics.DispatchMetrics
	cfg           config.DispatchConfig
	now           func() time.Time
}

// NewEngine validates dependencies and builds the engine.
func NewEngine(params Params) (*Engine, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.Inventory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory store required")
	}
	if params.Reminders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reminder store required")
	}
	if params.Preferences == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "preference store required")
	}
	if params.Notifications == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification store required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user store required")
	}
	if params.Tenants == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tenant store required")
	}
	if params.Resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "recipient resolver required")
	}
	if params.Scheduler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "trigger scheduler required")
	}
	if params.Mailer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mailer required")
	}

	cfg := params.Config
	if cfg.WorkerLimit <= 0 {
		cfg.WorkerLimit = 8
	}
	if cfg.DigestWindow <= 0 {
		cfg.DigestWindow = 24 * time.Hour
	}
	if cfg.MaxAlertItems <= 0 {
		cfg.MaxAlertItems = 5
	}

	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		logg:          params.Logger,
		inventory:     params.Inventory,
		reminders:     params.Reminders,
		preferences:   params.Preferences,
		notifications: params.Notifications,
		users:         params.Users,
		tenants:       params.Tenants,
		resolver:      params.Resolver,
		scheduler:     params.Scheduler,
		mail:          params.Mailer,
		metrics:       params.Metrics,
		cfg:           cfg,
		now:           now,
	}, nil
}

// RunTick executes all three passes and returns a summary. Unit failures are
// logged and skipped; the returned error aggregates pass-level failures only,
// so a partial tick still reports what it dispatched.
func (e *Engine) RunTick(ctx context.Context) (*TickSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if e.cfg.TickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.TickTimeout)
		defer cancel()
	}

	now := e.now().UTC()
	summary := &TickSummary{}

	var tickErr error
	passes := []struct {
		name string
		run  func(context.Context, time.Time, *TickSummary) error
	}{
		{name: passAlerts, run: e.runAlertsPass},
		{name: passReminders, run: e.runRemindersPass},
		{name: passDigests, run: e.runDigestPass},
	}

	for _, pass := range passes {
		passCtx := e.logg.WithPass(ctx, pass.name)
		start := time.Now()
		err := pass.run(passCtx, now, summary)
		e.metrics.ObserveDuration(pass.name, time.Since(start))
		if err != nil {
			e.metrics.IncFailure(pass.name)
			e.logg.Error(passCtx, "pass failed", err)
			summary.record("%s: failed: %v", pass.name, err)
			tickErr = multierr.Append(tickErr, fmt.Errorf("%s pass: %w", pass.name, err))
			continue
		}
		e.metrics.IncSuccess(pass.name)
	}

	e.metrics.AddDispatched(passAlerts, summary.AlertsDispatched)
	e.metrics.AddDispatched(passReminders, summary.RemindersDispatched)
	e.metrics.AddDispatched(passDigests, summary.DigestsSent)

	return summary, tickErr
}

// forEachUnit fans units out over a bounded worker pool. Worker errors are
// collected, never propagated mid-pass, so one bad unit cannot cancel its
// siblings.
func forEachUnit[T any](ctx context.Context, limit int, units []T, work func(context.Context, T) error) error {
	var (
		mu       sync.Mutex
		unitErrs error
	)

	group := &errgroup.Group{}
	group.SetLimit(limit)
	for _, unit := range units {
		if ctx.Err() != nil {
			mu.Lock()
			unitErrs = multierr.Append(unitErrs, ctx.Err())
			mu.Unlock()
			break
		}
		group.Go(func() error {
			if err := work(ctx, unit); err != nil {
				mu.Lock()
				unitErrs = multierr.Append(unitErrs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = group.Wait()
	return unitErrs
}

func utcMidnight(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
