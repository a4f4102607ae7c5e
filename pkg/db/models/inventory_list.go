package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryList is a named item grouping within a tenant, optionally bound to
// a location.
type InventoryList struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID   uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index"`
	LocationID *uuid.UUID `gorm:"column:location_id;type:uuid"`
	Name       string     `gorm:"column:name;type:text;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
