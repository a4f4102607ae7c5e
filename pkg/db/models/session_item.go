package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionItem is one counted line within an inventory session. Quantities are
// decimals because counts can be fractional (2.5 kg flour, 0.75 case).
type SessionItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID    uuid.UUID       `gorm:"column:session_id;type:uuid;not null;index"`
	ItemName     string          `gorm:"column:item_name;type:text;not null"`
	CurrentStock decimal.Decimal `gorm:"column:current_stock;type:numeric(12,3);not null"`
	ParLevel     decimal.Decimal `gorm:"column:par_level;type:numeric(12,3);not null"`
	Unit         string          `gorm:"column:unit;type:text"`
	Category     string          `gorm:"column:category;type:text"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
