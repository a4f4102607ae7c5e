package memberships

import (
	"context"

	"github.com/google/uuid"
	"github.com/prepdeckhq/prepdeck-backend/pkg/db/models"
	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes membership persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListActiveUserIDs returns the user ids of active members holding one of the
// provided roles in the tenant. Invited and revoked memberships never receive
// notifications.
func (r *Repository) ListActiveUserIDs(ctx context.Context, tenantID uuid.UUID, roles ...enums.MemberRole) ([]uuid.UUID, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.TenantMembership{}).
		Where("tenant_id = ? AND status = ? AND role IN ?", tenantID, enums.MembershipStatusActive, roles).
		Order("created_at").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetMembership retrieves a membership by tenant and user.
func (r *Repository) GetMembership(ctx context.Context, tenantID, userID uuid.UUID) (*models.TenantMembership, error) {
	var membership models.TenantMembership
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}
