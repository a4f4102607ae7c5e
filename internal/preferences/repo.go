package preferences

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/prepdeckhq/prepdeck-backend/pkg/db/models"
	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository reads notification preferences and tenant alert policies.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetForUser returns the user's preference row for the tenant, or nil when no
// row exists. A missing row is not an error; defaults apply.
func (r *Repository) GetForUser(ctx context.Context, tenantID, userID uuid.UUID) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// ListDigestSubscribed returns every preference row opted into the daily
// digest with email delivery still enabled.
func (r *Repository) ListDigestSubscribed(ctx context.Context) ([]models.NotificationPreference, error) {
	var rows []models.NotificationPreference
	err := r.db.WithContext(ctx).
		Where("email_digest_mode = ? AND (channel_email IS NULL OR channel_email = ?)", enums.DigestModeDaily, true).
		Order("tenant_id, user_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetAlertPolicy returns the tenant's low-stock targeting policy, or nil when
// the tenant has never configured one. Callers fall back to the default
// owners-and-managers targeting.
func (r *Repository) GetAlertPolicy(ctx context.Context, tenantID uuid.UUID) (*models.AlertPolicy, error) {
	var policy models.AlertPolicy
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&policy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}
