package models

import "time"

// Product mirrors a billing-provider product. Rows are replaced wholesale on
// every product webhook; there are no partial updates.
type Product struct {
	ID          string    `gorm:"type:varchar(191);primaryKey" json:"id"`
	Active      bool      `gorm:"default:true;index" json:"active"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Image       *string   `gorm:"type:varchar(2048)" json:"image,omitempty"`
	Metadata    string    `gorm:"type:json" json:"metadata"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
