package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
)

// TenantMembership links a user with a tenant and captures their role/status.
type TenantMembership struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID              `gorm:"column:tenant_id;type:uuid;not null;index"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null"`
	Role      enums.MemberRole       `gorm:"column:role;type:member_role;not null"`
	Status    enums.MembershipStatus `gorm:"column:status;type:membership_status;not null;default:'active'"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
