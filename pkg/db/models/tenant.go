package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is one restaurant on the platform. Locations, lists, sessions,
// reminders and preferences all hang off a tenant.
type Tenant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null"`
	Slug      string    `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Timezone  string    `gorm:"column:timezone;type:text;not null;default:'America/New_York'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
