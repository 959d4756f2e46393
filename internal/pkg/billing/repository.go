package billing

import (
	"time"

	"github.com/mhofer/billingsync/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the Ledger operations used by the resolver and
// reconciler. Not-found conditions surface as gorm.ErrRecordNotFound; the
// callers translate everything else into the billing error taxonomy.
type Repository interface {
	GetCustomerMappingByUserID(userID string) (*models.CustomerMapping, error)
	GetCustomerMappingByBillingCustomerID(billingCustomerID string) (*models.CustomerMapping, error)
	UpsertCustomerMapping(mapping *models.CustomerMapping) error
	UpsertProductWithPrices(product *models.Product, prices []models.Price) error
	UpsertSubscription(sub *models.Subscription) error
	GetUserByEmail(email string) (*models.User, error)
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a Ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetCustomerMappingByUserID(userID string) (*models.CustomerMapping, error) {
	var mapping models.CustomerMapping
	if err := r.db.Where("user_id = ?", userID).First(&mapping).Error; err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *gormRepository) GetCustomerMappingByBillingCustomerID(billingCustomerID string) (*models.CustomerMapping, error) {
	var mapping models.CustomerMapping
	if err := r.db.Where("billing_customer_id = ?", billingCustomerID).First(&mapping).Error; err != nil {
		return nil, err
	}
	return &mapping, nil
}

// UpsertCustomerMapping is idempotent under identical input: a concurrent
// caller writing the same mapping is serialized by the primary key, not an
// error.
func (r *gormRepository) UpsertCustomerMapping(mapping *models.CustomerMapping) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"billing_customer_id",
			"updated_at",
		}),
	}).Create(mapping).Error
}

// UpsertProductWithPrices replaces the product row wholesale and upserts the
// full price set tied to it, all inside one transaction.
func (r *gormRepository) UpsertProductWithPrices(product *models.Product, prices []models.Price) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"active",
				"name",
				"description",
				"image",
				"metadata",
				"updated_at",
			}),
		}).Create(product).Error; err != nil {
			return err
		}

		if len(prices) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"product_id",
				"amount",
				"type",
				"recurring_interval",
				"updated_at",
			}),
		}).Create(&prices).Error
	})
}

func (r *gormRepository) UpsertSubscription(sub *models.Subscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"status",
			"price_id",
			"cancel_at_period_end",
			"cancel_at",
			"current_period_start",
			"current_period_end",
			"created",
			"ended_at",
			"updated_at",
		}),
	}).Create(sub).Error
}

func (r *gormRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider_event_id = ?", event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
