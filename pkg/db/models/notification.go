package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
)

// Notification is the engine's sole write target: one in-app alert for one
// user within one tenant. ReadAt is set by the UI, EmailedAt by the digest
// pass. DedupeKey is populated for low_stock/reminder rows so the unique
// index collapses same-day duplicates into a no-op insert.
type Notification struct {
	ID         uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID   uuid.UUID                  `gorm:"column:tenant_id;type:uuid;not null;index"`
	LocationID *uuid.UUID                 `gorm:"column:location_id;type:uuid"`
	UserID     uuid.UUID                  `gorm:"column:user_id;type:uuid;not null;index"`
	Type       enums.NotificationType     `gorm:"column:type;type:notification_type;not null"`
	Title      string                     `gorm:"column:title;type:text;not null"`
	Message    string                     `gorm:"column:message;type:text;not null"`
	Severity   enums.NotificationSeverity `gorm:"column:severity;type:notification_severity;not null;default:'info'"`
	Payload    json.RawMessage            `gorm:"column:payload;type:jsonb"`
	DedupeKey  *string                    `gorm:"column:dedupe_key;type:text;uniqueIndex"`
	CreatedAt  time.Time                  `gorm:"column:created_at;type:timestamptz;default:now()"`
	ReadAt     *time.Time                 `gorm:"column:read_at;type:timestamptz"`
	EmailedAt  *time.Time                 `gorm:"column:emailed_at;type:timestamptz"`
}

// DedupeKeyFor builds the (tenant, user, type, UTC day) dedupe key.
func DedupeKeyFor(tenantID, userID uuid.UUID, kind enums.NotificationType, day time.Time) string {
	return tenantID.String() + ":" + userID.String() + ":" + string(kind) + ":" + day.UTC().Format("2006-01-02")
}
