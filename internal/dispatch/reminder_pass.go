package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeckhq/prepdeck-backend/internal/mailer"
	"github.com/prepdeckhq/prepdeck-backend/pkg/db/models"
	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
	pkgerrors "github.com/prepdeckhq/prepdeck-backend/pkg/errors"
	"go.uber.org/multierr"
)

// runRemindersPass fires every enabled reminder whose trigger window contains
// now and notifies its resolved recipients.
func (e *Engine) runRemindersPass(ctx context.Context, now time.Time, summary *TickSummary) error {
	enabled, err := e.reminders.ListEnabled(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list enabled reminders")
	}

	unitErrs := forEachUnit(ctx, e.cfg.WorkerLimit, enabled, func(ctx context.Context, reminder models.Reminder) error {
		dispatched, err := e.fireReminder(ctx, now, reminder)
		summary.addReminders(dispatched)
		if err != nil {
			unitCtx := e.logg.WithField(e.logg.WithTenantID(ctx, reminder.TenantID.String()), "reminder_id", reminder.ID.String())
			e.logg.Error(unitCtx, "reminder unit failed", err)
			return err
		}
		return nil
	})

	failed := len(multierr.Errors(unitErrs))
	summary.record("%s: %d schedules checked, %d units failed", passReminders, len(enabled), failed)
	return nil
}

func (e *Engine) fireReminder(ctx context.Context, now time.Time, reminder models.Reminder) (int, error) {
	due, err := e.scheduler.ReminderDue(reminder, now)
	if err != nil {
		return 0, fmt.Errorf("evaluate trigger: %w", err)
	}
	if !due {
		return 0, nil
	}

	userIDs, err := e.resolver.Resolve(ctx, reminder.TenantID, reminder.RecipientsMode, reminder.CustomRecipientIDs)
	if err != nil {
		return 0, fmt.Errorf("resolve reminder recipients: %w", err)
	}

	dispatched := 0
	var userErrs error
	for _, userID := range userIDs {
		sent, err := e.remindUser(ctx, now, reminder, userID)
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

// remindUser writes the in-app reminder and optionally an immediate email.
// The in-app insert is never gated on preferences; reminders are not
// severity-filterable.
func (e *Engine) remindUser(ctx context.Context, now time.Time, reminder models.Reminder, userID uuid.UUID) (bool, error) {
	exists, err := e.notifications.ExistsSince(ctx, reminder.TenantID, userID, enums.NotificationTypeReminder, utcMidnight(now))
	if err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	if exists {
		return false, nil
	}

	payload, err := json.Marshal(struct {
		ReminderID uuid.UUID `json:"reminder_id"`
	}{ReminderID: reminder.ID})
	if err != nil {
		return false, fmt.Errorf("marshal payload: %w", err)
	}

	key := models.DedupeKeyFor(reminder.TenantID, userID, enums.NotificationTypeReminder, now)
	inserted, err := e.notifications.CreateDeduped(ctx, &models.Notification{
		TenantID:  reminder.TenantID,
		UserID:    userID,
		Type:      enums.NotificationTypeReminder,
		Title:     "Inventory reminder",
		Message:   reminder.Name,
		Severity:  enums.SeverityInfo,
		Payload:   payload,
		DedupeKey: &key,
		CreatedAt: now,
	})
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	if !inserted {
		return false, nil
	}

	pref, err := e.preferences.GetForUser(ctx, reminder.TenantID, userID)
	if err != nil {
		return true, fmt.Errorf("get preference: %w", err)
	}
	if pref.EmailEnabled() && pref.DigestMode() == enums.DigestModeImmediate {
		if err := e.sendReminderEmail(ctx, reminder, userID); err != nil {
			e.logg.Error(e.logg.WithUserID(ctx, userID.String()), "immediate reminder email failed", err)
		}
	}
	return true, nil
}

func (e *Engine) sendReminderEmail(ctx context.Context, reminder models.Reminder, userID uuid.UUID) error {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.Email == "" {
		return nil
	}
	tenant, err := e.tenants.GetByID(ctx, reminder.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	email := mailer.ReminderEmail{
		TenantName:   tenant.Name,
		ReminderName: reminder.Name,
		TimeOfDay:    reminder.TimeOfDay,
	}
	body, err := mailer.RenderReminder(email)
	if err != nil {
		return err
	}
	return e.mail.Send(ctx, user.Email, email.Subject(), body)
}
