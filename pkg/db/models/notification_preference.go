package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
)

// NotificationPreference captures one user's delivery settings within a
// tenant. Boolean columns are nullable; a missing row or NULL field means the
// documented default applies (in-app on, email on, immediate mode, red alerts
// on, yellow alerts off).
type NotificationPreference struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID        uuid.UUID             `gorm:"column:tenant_id;type:uuid;not null;index:idx_notification_prefs_tenant_user,unique"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index:idx_notification_prefs_tenant_user,unique"`
	ChannelInApp    *bool                 `gorm:"column:channel_in_app"`
	ChannelEmail    *bool                 `gorm:"column:channel_email"`
	EmailDigestMode enums.EmailDigestMode `gorm:"column:email_digest_mode;type:email_digest_mode;not null;default:'immediate'"`
	DigestHour      int                   `gorm:"column:digest_hour;not null;default:8"`
	DigestTimezone  string                `gorm:"column:digest_timezone;type:text;not null;default:'America/New_York'"`
	LowStockRed     *bool                 `gorm:"column:low_stock_red"`
	LowStockYellow  *bool                 `gorm:"column:low_stock_yellow"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// InAppEnabled resolves the nullable channel_in_app column (default true).
func (p *NotificationPreference) InAppEnabled() bool {
	return p == nil || p.ChannelInApp == nil || *p.ChannelInApp
}

// EmailEnabled resolves the nullable channel_email column (default true).
func (p *NotificationPreference) EmailEnabled() bool {
	return p == nil || p.ChannelEmail == nil || *p.ChannelEmail
}

// DigestMode resolves the digest mode (default immediate).
func (p *NotificationPreference) DigestMode() enums.EmailDigestMode {
	if p == nil || p.EmailDigestMode == "" {
		return enums.DigestModeImmediate
	}
	return p.EmailDigestMode
}

// WantsRed resolves the red severity opt-in (default true).
func (p *NotificationPreference) WantsRed() bool {
	return p == nil || p.LowStockRed == nil || *p.LowStockRed
}

// WantsYellow resolves the yellow severity opt-in (default false).
func (p *NotificationPreference) WantsYellow() bool {
	return p != nil && p.LowStockYellow != nil && *p.LowStockYellow
}
