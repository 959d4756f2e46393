package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	STATUS_ACTIVE   = "active"
	STATUS_DISABLED = "disabled"
)

// User mirrors the account record owned by the auth system. BillingSync only
// reads users; it never creates, updates or deletes them.
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id" validate:"required,uuid4"`
	Email     string    `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Name      string    `gorm:"type:varchar(150)" json:"name" validate:"max=150"`
	Status    string    `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active disabled"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// NewUserID returns a fresh user id in the format the auth system assigns.
// Used by seeds and tests only.
func NewUserID() string {
	return uuid.NewString()
}
