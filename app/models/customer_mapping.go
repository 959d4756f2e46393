package models

import "time"

// CustomerMapping associates one internal user with exactly one billing
// customer id at the provider. The user id is the primary key, so a user can
// never hold two billing identities; the billing id column is empty until the
// first resolution and is corrected in place when the provider reports a
// different id.
type CustomerMapping struct {
	UserID            string    `gorm:"column:user_id;type:varchar(36);primaryKey" json:"user_id"`
	BillingCustomerID string    `gorm:"type:varchar(191);default:'';index:idx_customers_billing_customer_id" json:"billing_customer_id"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName keeps the table name aligned with the provider-facing schema.
func (CustomerMapping) TableName() string {
	return "customers"
}
