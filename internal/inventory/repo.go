package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/prepdeckhq/prepdeck-backend/pkg/db/models"
	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository reads approved inventory counts. Session lifecycle is owned by
// the counting UI; the dispatch engine only ever queries approved snapshots.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListTenantIDsWithApprovedSessions returns every tenant that has at least one
// approved count, in stable order.
func (r *Repository) ListTenantIDsWithApprovedSessions(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.InventorySession{}).
		Distinct("tenant_id").
		Where("status = ?", enums.SessionStatusApproved).
		Order("tenant_id").
		Pluck("tenant_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// LatestApprovedSessions returns the most recently approved session per
// inventory list for the tenant. Older approved counts for the same list are
// superseded and never re-alerted.
func (r *Repository) LatestApprovedSessions(ctx context.Context, tenantID uuid.UUID) ([]models.InventorySession, error) {
	var sessions []models.InventorySession
	err := r.db.WithContext(ctx).
		Model(&models.InventorySession{}).
		Select("DISTINCT ON (list_id) *").
		Where("tenant_id = ? AND status = ?", tenantID, enums.SessionStatusApproved).
		Order("list_id, approved_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListSessionItems returns the counted lines of one session.
func (r *Repository) ListSessionItems(ctx context.Context, sessionID uuid.UUID) ([]models.SessionItem, error) {
	var items []models.SessionItem
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("item_name").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
