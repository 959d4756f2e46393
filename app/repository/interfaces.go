package repository

import (
	"github.com/mhofer/billingsync/app/models"
)

// UserRepository defines the read-only user lookups this service needs. User
// rows are owned by the auth system and never written here.
type UserRepository interface {
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
}
