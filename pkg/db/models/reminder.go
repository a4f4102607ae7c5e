package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/prepdeckhq/prepdeck-backend/pkg/db/types"
	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
)

// Reminder is a tenant-scoped recurring schedule. Mutated only by the
// settings UI; the dispatch engine treats rows as read-only snapshots.
type Reminder struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID           uuid.UUID            `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name               string               `gorm:"column:name;type:text;not null"`
	Days               dbtypes.WeekdaySet   `gorm:"column:days;type:text[]"`
	TimeOfDay          string               `gorm:"column:time_of_day;type:text;not null"`
	Timezone           string               `gorm:"column:timezone;type:text;not null"`
	Enabled            bool                 `gorm:"column:enabled;not null;default:true"`
	RecipientsMode     enums.RecipientsMode `gorm:"column:recipients_mode;type:recipients_mode;not null;default:'owners_managers'"`
	CustomRecipientIDs dbtypes.UUIDArray    `gorm:"column:custom_recipient_ids;type:uuid[]"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
