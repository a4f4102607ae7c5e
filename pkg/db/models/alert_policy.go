package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/prepdeckhq/prepdeck-backend/pkg/db/types"
	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
)

// AlertPolicy is the tenant-wide targeting policy for low-stock alerts. One
// row per tenant; a tenant without a row gets owners_managers targeting.
type AlertPolicy struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID           uuid.UUID            `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex"`
	RecipientsMode     enums.RecipientsMode `gorm:"column:recipients_mode;type:recipients_mode;not null;default:'owners_managers'"`
	CustomRecipientIDs dbtypes.UUIDArray    `gorm:"column:custom_recipient_ids;type:uuid[]"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
