package reminders

import (
	"context"

	"github.com/google/uuid"
	"github.com/prepdeckhq/prepdeck-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads reminder schedules. Schedules are mutated only by the
// settings UI; the dispatch engine treats them as snapshots.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListEnabled returns every enabled reminder across all tenants.
func (r *Repository) ListEnabled(ctx context.Context) ([]models.Reminder, error) {
	var rows []models.Reminder
	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("tenant_id, created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Get retrieves a reminder by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	var reminder models.Reminder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reminder).Error
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}
