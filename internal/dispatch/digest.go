package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeckhq/prepdeck-backend/internal/mailer"
	"github.com/prepdeckhq/prepdeck-backend/pkg/db/models"
	pkgerrors "github.com/prepdeckhq/prepdeck-backend/pkg/errors"
	"go.uber.org/multierr"
)

// runDigestPass emails each digest subscriber one message aggregating their
// pending notifications, then marks those rows emailed so later ticks never
// re-include them.
func (e *Engine) runDigestPass(ctx context.Context, now time.Time, summary *TickSummary) error {
	subscribers, err := e.preferences.ListDigestSubscribed(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list digest subscribers")
	}

	unitErrs := forEachUnit(ctx, e.cfg.WorkerLimit, subscribers, func(ctx context.Context, pref models.NotificationPreference) error {
		sent, err := e.digestUser(ctx, now, pref)
		if sent {
			summary.addDigests(1)
		}
		if err != nil {
			unitCtx := e.logg.WithUserID(e.logg.WithTenantID(ctx, pref.TenantID.String()), pref.UserID.String())
			e.logg.Error(unitCtx, "digest unit failed", err)
			return err
		}
		return nil
	})

	failed := len(multierr.Errors(unitErrs))
	summary.record("%s: %d subscribers checked, %d units failed", passDigests, len(subscribers), failed)
	return nil
}

// digestUser sends at most one digest email. Pending rows are marked emailed
// only after the send succeeds, so a transport failure leaves them for the
// next due window.
func (e *Engine) digestUser(ctx context.Context, now time.Time, pref models.NotificationPreference) (bool, error) {
	due, err := e.scheduler.DigestDue(pref, now)
	if err != nil {
		return false, fmt.Errorf("evaluate trigger: %w", err)
	}
	if !due {
		return false, nil
	}

	since := now.Add(-e.cfg.DigestWindow)
	pending, err := e.notifications.ListPendingDigest(ctx, pref.TenantID, pref.UserID, since)
	if err != nil {
		return false, fmt.Errorf("list pending notifications: %w", err)
	}
	if len(pending) == 0 {
		return false, nil
	}

	user, err := e.users.GetByID(ctx, pref.UserID)
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}
	if user.Email == "" {
		return false, nil
	}
	tenant, err := e.tenants.GetByID(ctx, pref.TenantID)
	if err != nil {
		return false, fmt.Errorf("load tenant: %w", err)
	}

	email := mailer.DigestEmail{
		TenantName: tenant.Name,
		Entries:    digestEntries(pending),
	}
	body, err := mailer.RenderDigest(email)
	if err != nil {
		return false, err
	}
	if err := e.mail.Send(ctx, user.Email, email.Subject(), body); err != nil {
		return false, fmt.Errorf("send digest: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(pending))
	for _, notification := range pending {
		ids = append(ids, notification.ID)
	}
	if _, err := e.notifications.MarkEmailed(ctx, ids, now); err != nil {
		// The email went out; the next digest may repeat these rows but the
		// send itself is not retried.
		return true, fmt.Errorf("mark emailed: %w", err)
	}
	return true, nil
}

func digestEntries(pending []models.Notification) []mailer.DigestEntry {
	entries := make([]mailer.DigestEntry, 0, len(pending))
	for _, notification := range pending {
		entries = append(entries, mailer.DigestEntry{
			Title:     notification.Title,
			Message:   notification.Message,
			CreatedAt: notification.CreatedAt.UTC().Format("Jan 2 15:04 MST"),
		})
	}
	return entries
}
