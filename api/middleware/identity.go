package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/prepdeckhq/prepdeck-backend/api/responses"
	pkgerrors "github.com/prepdeckhq/prepdeck-backend/pkg/errors"
	"github.com/prepdeckhq/prepdeck-backend/pkg/logger"
)

const (
	tenantIDHeader = "X-Tenant-Id"
	userIDHeader   = "X-User-Id"
)

// Identity extracts the tenant and user identifiers forwarded by the platform
// gateway. The gateway terminates authentication; these headers are trusted
// within the cluster.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := r.Header.Get(tenantIDHeader)
			userID := r.Header.Get(userIDHeader)
			if tenantID == "" || userID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tenant and user headers required"))
				return
			}
			if _, err := uuid.Parse(tenantID); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tenant id"))
				return
			}
			if _, err := uuid.Parse(userID); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
				return
			}

			ctx := WithTenantID(WithUserID(r.Context(), userID), tenantID)
			if logg != nil {
				ctx = logg.WithTenantID(logg.WithUserID(ctx, userID), tenantID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
