package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeckhq/prepdeck-backend/internal/mailer"
	"github.com/prepdeckhq/prepdeck-backend/internal/risk"
	"github.com/prepdeckhq/prepdeck-backend/pkg/db/models"
	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
	pkgerrors "github.com/prepdeckhq/prepdeck-backend/pkg/errors"
	"go.uber.org/multierr"
)

// runAlertsPass evaluates every tenant's latest approved counts and notifies
// the tenant's alert recipients about items below PAR.
func (e *Engine) runAlertsPass(ctx context.Context, now time.Time, summary *TickSummary) error {
	tenantIDs, err := e.inventory.ListTenantIDsWithApprovedSessions(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tenants with approved sessions")
	}

	unitErrs := forEachUnit(ctx, e.cfg.WorkerLimit, tenantIDs, func(ctx context.Context, tenantID uuid.UUID) error {
		dispatched, err := e.alertTenant(ctx, now, tenantID)
		summary.addAlerts(dispatched)
		if err != nil {
			e.logg.Error(e.logg.WithTenantID(ctx, tenantID.String()), "low-stock alert unit failed", err)
			return err
		}
		return nil
	})

	failed := len(multierr.Errors(unitErrs))
	summary.record("%s: %d tenants evaluated, %d units failed", passAlerts, len(tenantIDs), failed)
	return nil
}

func (e *Engine) alertTenant(ctx context.Context, now time.Time, tenantID uuid.UUID) (int, error) {
	sessions, err := e.inventory.LatestApprovedSessions(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("latest approved sessions: %w", err)
	}

	var alertItems []risk.EvaluatedItem
	for _, session := range sessions {
		items, err := e.inventory.ListSessionItems(ctx, session.ID)
		if err != nil {
			return 0, fmt.Errorf("list session items: %w", err)
		}
		evaluation := risk.Evaluate(items)
		alertItems = append(alertItems, evaluation.AlertItems...)
	}
	if len(alertItems) == 0 {
		return 0, nil
	}

	mode := enums.RecipientsOwnersManagers
	var custom []uuid.UUID
	policy, err := e.preferences.GetAlertPolicy(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("get alert policy: %w", err)
	}
	if policy != nil {
		mode = policy.RecipientsMode
		custom = policy.CustomRecipientIDs
	}

	userIDs, err := e.resolver.Resolve(ctx, tenantID, mode, custom)
	if err != nil {
		return 0, fmt.Errorf("resolve alert recipients: %w", err)
	}

	dispatched := 0
	var userErrs error
	for _, userID := range userIDs {
		sent, err := e.alertUser(ctx, now, tenantID, userID, alertItems)
		if err != nil {
			userErrs = multierr.Append(userErrs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		if sent {
			dispatched++
		}
	}
	return dispatched, userErrs
}

// alertUser applies the user's severity opt-ins, the daily idempotency guard,
// and the channel preferences. Returns whether an in-app notification was
// written.
func (e *Engine) alertUser(ctx context.Context, now time.Time, tenantID, userID uuid.UUID, alertItems []risk.EvaluatedItem) (bool, error) {
	pref, err := e.preferences.GetForUser(ctx, tenantID, userID)
	if err != nil {
		return false, fmt.Errorf("get preference: %w", err)
	}

	filtered := filterBySeverity(alertItems, pref)
	if len(filtered) == 0 {
		return false, nil
	}

	exists, err := e.notifications.ExistsSince(ctx, tenantID, userID, enums.NotificationTypeLowStock, utcMidnight(now))
	if err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	if exists {
		return false, nil
	}

	severity := enums.SeverityWarning
	if filteredHasRed(filtered) {
		severity = enums.SeverityCritical
	}

	payload, err := json.Marshal(struct {
		Items []risk.EvaluatedItem `json:"items"`
	}{Items: filtered})
	if err != nil {
		return false, fmt.Errorf("marshal payload: %w", err)
	}

	inserted := false
	if pref.InAppEnabled() {
		key := models.DedupeKeyFor(tenantID, userID, enums.NotificationTypeLowStock, now)
		inserted, err = e.notifications.CreateDeduped(ctx, &models.Notification{
			TenantID:  tenantID,
			UserID:    userID,
			Type:      enums.NotificationTypeLowStock,
			Title:     "Low stock alert",
			Message:   alertMessage(filtered, e.cfg.MaxAlertItems),
			Severity:  severity,
			Payload:   payload,
			DedupeKey: &key,
			CreatedAt: now,
		})
		if err != nil {
			return false, fmt.Errorf("insert notification: %w", err)
		}
		// A losing race means another tick already alerted this user today.
		if !inserted {
			return false, nil
		}
	}

	if pref.EmailEnabled() && pref.DigestMode() == enums.DigestModeImmediate {
		if err := e.sendAlertEmail(ctx, tenantID, userID, filtered, severity); err != nil {
			// Channels are independent: a failed send never rolls back the
			// in-app notification.
			e.logg.Error(e.logg.WithUserID(ctx, userID.String()), "immediate alert email failed", err)
		}
	}
	return inserted, nil
}

func (e *Engine) sendAlertEmail(ctx context.Context, tenantID, userID uuid.UUID, items []risk.EvaluatedItem, severity enums.NotificationSeverity) error {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.Email == "" {
		return nil
	}
	tenant, err := e.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	email := mailer.LowStockEmail{
		TenantName:  tenant.Name,
		HasCritical: severity == enums.SeverityCritical,
		Items:       alertEmailItems(items),
	}
	body, err := mailer.RenderLowStock(email)
	if err != nil {
		return err
	}
	return e.mail.Send(ctx, user.Email, email.Subject(), body)
}

func alertEmailItems(items []risk.EvaluatedItem) []mailer.AlertItem {
	out := make([]mailer.AlertItem, 0, len(items))
	for _, item := range items {
		out = append(out, mailer.AlertItem{
			Name:           item.ItemName,
			CurrentStock:   item.CurrentStock.String(),
			ParLevel:       item.ParLevel.String(),
			Risk:           item.Risk.String(),
			SuggestedOrder: item.SuggestedOrder.String(),
		})
	}
	return out
}

// alertMessage lists up to maxItems item names plus an overflow count.
func alertMessage(items []risk.EvaluatedItem, maxItems int) string {
	names := make([]string, 0, maxItems)
	for i, item := range items {
		if i >= maxItems {
			break
		}
		names = append(names, item.ItemName)
	}
	message := "Low stock: " + strings.Join(names, ", ")
	if overflow := len(items) - maxItems; overflow > 0 {
		message += fmt.Sprintf(" and %d more", overflow)
	}
	return message
}

// filterBySeverity keeps the alert items whose tier the user opted into.
// Defaults: red on, yellow off.
func filterBySeverity(items []risk.EvaluatedItem, pref *models.NotificationPreference) []risk.EvaluatedItem {
	var filtered []risk.EvaluatedItem
	for _, item := range items {
		switch item.Risk {
		case enums.RiskRed:
			if pref.WantsRed() {
				filtered = append(filtered, item)
			}
		case enums.RiskYellow:
			if pref.WantsYellow() {
				filtered = append(filtered, item)
			}
		}
	}
	return filtered
}

func filteredHasRed(items []risk.EvaluatedItem) bool {
	for _, item := range items {
		if item.Risk == enums.RiskRed {
			return true
		}
	}
	return false
}
