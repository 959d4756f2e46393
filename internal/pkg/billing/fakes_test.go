package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/mhofer/billingsync/app/models"
	"gorm.io/gorm"
)

// fakeRepository is an in-memory Ledger used by resolver and reconciler
// tests.
type fakeRepository struct {
	mappingsByUser map[string]*models.CustomerMapping
	usersByEmail   map[string]*models.User
	products       map[string]*models.Product
	prices         map[string]models.Price
	subscriptions  map[string]*models.Subscription
	events         map[string]*models.WebhookEvent

	mappingUpserts int
	lookupErr      error
	upsertErr      error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		mappingsByUser: map[string]*models.CustomerMapping{},
		usersByEmail:   map[string]*models.User{},
		products:       map[string]*models.Product{},
		prices:         map[string]models.Price{},
		subscriptions:  map[string]*models.Subscription{},
		events:         map[string]*models.WebhookEvent{},
	}
}

var _ Repository = (*fakeRepository)(nil)

func (f *fakeRepository) GetCustomerMappingByUserID(userID string) (*models.CustomerMapping, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	mapping, ok := f.mappingsByUser[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *mapping
	return &copied, nil
}

func (f *fakeRepository) GetCustomerMappingByBillingCustomerID(billingCustomerID string) (*models.CustomerMapping, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, mapping := range f.mappingsByUser {
		if mapping.BillingCustomerID == billingCustomerID {
			copied := *mapping
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) UpsertCustomerMapping(mapping *models.CustomerMapping) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mappingUpserts++
	copied := *mapping
	f.mappingsByUser[mapping.UserID] = &copied
	return nil
}

func (f *fakeRepository) UpsertProductWithPrices(product *models.Product, prices []models.Price) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	copied := *product
	f.products[product.ID] = &copied
	for _, price := range prices {
		f.prices[price.ID] = price
	}
	return nil
}

func (f *fakeRepository) UpsertSubscription(sub *models.Subscription) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	copied := *sub
	f.subscriptions[sub.ID] = &copied
	return nil
}

func (f *fakeRepository) GetUserByEmail(email string) (*models.User, error) {
	user, ok := f.usersByEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if stored, ok := f.events[event.ProviderEventID]; ok {
		return false, stored, nil
	}
	copied := *event
	copied.ID = uint(len(f.events) + 1)
	f.events[event.ProviderEventID] = &copied
	return true, &copied, nil
}

func (f *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, event := range f.events {
		if event.ID == id {
			now := time.Now()
			event.ProcessedAt = &now
			event.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// fakeClient is a canned provider API used by resolver and reconciler tests.
type fakeClient struct {
	customers    map[string]*Customer
	subscription *Subscription

	getErr    error
	createErr error
	subErr    error

	createCalls          int
	getSubscriptionCalls int
}

func newFakeClient() *fakeClient {
	return &fakeClient{customers: map[string]*Customer{}}
}

var _ Client = (*fakeClient)(nil)

func (f *fakeClient) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	customer, ok := f.customers[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

func (f *fakeClient) CreateCustomer(ctx context.Context, email string, metadata map[string]string) (*Customer, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createCalls++
	customer := &Customer{
		ID:       fmt.Sprintf("cus_%03d", f.createCalls),
		Email:    email,
		Metadata: metadata,
	}
	f.customers[customer.ID] = customer
	return customer, nil
}

func (f *fakeClient) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	f.getSubscriptionCalls++
	if f.subErr != nil {
		return nil, f.subErr
	}
	if f.subscription == nil || f.subscription.ID != id {
		return nil, fmt.Errorf("%w: subscription %s not found", ErrBillingUnavailable, id)
	}
	copied := *f.subscription
	return &copied, nil
}
