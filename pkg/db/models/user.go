package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a minimal profile. Authentication lives outside this service; the
// dispatch engine only needs the email address for outbound sends.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	FullName  string    `gorm:"column:full_name;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
