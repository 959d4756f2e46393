package models

import "time"

const (
	PriceTypeOneTime   = "one_time"
	PriceTypeRecurring = "recurring"
)

const (
	PriceIntervalMonth = "month"
	PriceIntervalYear  = "year"
)

// Price belongs to a Product and is upserted together with it in the same
// transaction. Amount is null for non-fixed price types; RecurringInterval is
// null unless the price type is recurring.
type Price struct {
	ID                string    `gorm:"type:varchar(191);primaryKey" json:"id"`
	ProductID         string    `gorm:"type:varchar(191);not null;index" json:"product_id"`
	Amount            *int64    `json:"amount,omitempty"`
	Type              string    `gorm:"type:varchar(16);not null" json:"type"`
	RecurringInterval *string   `gorm:"type:varchar(16)" json:"recurring_interval,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
