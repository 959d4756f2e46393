package models

import "time"

// Subscription statuses as reported by the billing provider. The set is
// provider-defined and treated as opaque: unknown values are stored as-is.
const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusIncomplete = "incomplete"
	SubscriptionStatusUnpaid     = "unpaid"
)

// Subscription mirrors the provider's subscription record, keyed by the
// provider-assigned id so redelivered events re-write identical fields.
// UserID is the internal user id resolved through CustomerMapping, never the
// raw billing customer id. CancelAt is set only while CancelAtPeriodEnd is
// true and a period end is known.
type Subscription struct {
	ID                 string     `gorm:"type:varchar(191);primaryKey" json:"id"`
	UserID             string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Status             string     `gorm:"type:varchar(32);not null;index" json:"status"`
	PriceID            string     `gorm:"type:varchar(191);not null" json:"price_id"`
	CancelAtPeriodEnd  bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CancelAt           *time.Time `gorm:"type:timestamp;default:null" json:"cancel_at,omitempty"`
	CurrentPeriodStart time.Time  `gorm:"type:timestamp;not null" json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	Created            time.Time  `gorm:"column:created;type:timestamp;not null" json:"created"`
	EndedAt            *time.Time `gorm:"type:timestamp;default:null" json:"ended_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
