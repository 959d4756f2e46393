package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mhofer/billingsync/app/models"
	"gorm.io/gorm"
)

// Reconciler applies decoded webhook events to the Ledger. Apply is safe to
// invoke multiple times with the same logical event in any order: product
// events are full replaces and subscription events re-fetch the live
// snapshot before writing, so repeated or stale deliveries converge on the
// same rows.
type Reconciler struct {
	repo   Repository
	client Client
}

// NewReconciler creates a reconciler from injected Ledger and provider
// handles.
func NewReconciler(repo Repository, client Client) *Reconciler {
	return &Reconciler{repo: repo, client: client}
}

// Apply routes the event to its handler. Failures come back as a
// *ReconciliationError carrying the event and entity ids; the caller owns
// retry, backoff and dead-lettering.
func (r *Reconciler) Apply(ctx context.Context, event *Event) error {
	if event == nil {
		return newReconciliationError("", "", errors.New("nil event"))
	}

	switch event.Type {
	case EventProductCreated, EventProductUpdated:
		return r.applyProduct(ctx, event)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return r.applySubscription(ctx, event)
	default:
		return newReconciliationError(event.ID, "", fmt.Errorf("unsupported event type %q", event.Type))
	}
}

func (r *Reconciler) applyProduct(ctx context.Context, event *Event) error {
	_ = ctx
	payload := event.Product
	if payload == nil {
		return newReconciliationError(event.ID, "", errors.New("product event without product payload"))
	}

	product, prices := mapProductRow(payload)
	if err := r.repo.UpsertProductWithPrices(product, prices); err != nil {
		return newReconciliationError(event.ID, payload.ID,
			fmt.Errorf("%w: product upsert: %v", ErrLedgerUnavailable, err))
	}

	log.Printf("[billing] product %s upserted with %d prices", payload.ID, len(prices))
	return nil
}

func (r *Reconciler) applySubscription(ctx context.Context, event *Event) error {
	payload := event.Subscription
	if payload == nil {
		return newReconciliationError(event.ID, "", errors.New("subscription event without subscription payload"))
	}

	userID, err := r.resolveEventUser(payload)
	if err != nil {
		return newReconciliationError(event.ID, payload.ID, err)
	}

	// The webhook payload is a change notification, not the source of
	// truth: always re-fetch before writing so out-of-order deliveries
	// still land on the live snapshot.
	snapshot, err := r.client.GetSubscription(ctx, payload.ID)
	if err != nil {
		return newReconciliationError(event.ID, payload.ID, err)
	}

	row := mapSubscriptionRow(snapshot, userID)
	if err := r.repo.UpsertSubscription(row); err != nil {
		return newReconciliationError(event.ID, payload.ID,
			fmt.Errorf("%w: subscription upsert: %v", ErrLedgerUnavailable, err))
	}

	log.Printf("[billing] subscription %s upserted for user %s (status=%s)", row.ID, userID, row.Status)
	return nil
}

// resolveEventUser maps the event's billing customer id to an internal user.
// When no mapping exists yet, one is synthesized from the customer email in
// the payload: a matching internal user adopts the billing identity, and a
// missing user fails the event so redelivery converges once the user exists.
func (r *Reconciler) resolveEventUser(payload *SubscriptionEventData) (string, error) {
	customerID := strings.TrimSpace(payload.Customer.ID)

	mapping, err := r.repo.GetCustomerMappingByBillingCustomerID(customerID)
	if err == nil {
		return mapping.UserID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%w: mapping lookup for customer %s: %v", ErrLedgerUnavailable, customerID, err)
	}

	user, err := r.repo.GetUserByEmail(strings.TrimSpace(payload.Customer.Email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%w: no internal user for customer %s (email %q)", ErrMappingNotFound, customerID, payload.Customer.Email)
	}
	if err != nil {
		return "", fmt.Errorf("%w: user lookup for customer %s: %v", ErrLedgerUnavailable, customerID, err)
	}

	log.Printf("[billing] synthesizing customer mapping %s -> %s from subscription event", user.ID, customerID)
	if err := r.repo.UpsertCustomerMapping(&models.CustomerMapping{
		UserID:            user.ID,
		BillingCustomerID: customerID,
	}); err != nil {
		return "", fmt.Errorf("%w: mapping upsert for customer %s: %v", ErrLedgerUnavailable, customerID, err)
	}
	return user.ID, nil
}

// mapProductRow maps a product payload onto its Ledger rows. The row is a
// full replace: nullable columns clear when the payload omits them.
func mapProductRow(payload *Product) (*models.Product, []models.Price) {
	var image *string
	if len(payload.Medias) > 0 && strings.TrimSpace(payload.Medias[0].PublicURL) != "" {
		url := payload.Medias[0].PublicURL
		image = &url
	}

	metadata := "{}"
	if len(payload.Metadata) > 0 {
		if raw, err := json.Marshal(payload.Metadata); err == nil {
			metadata = string(raw)
		}
	}

	product := &models.Product{
		ID:          payload.ID,
		Active:      !payload.IsArchived,
		Name:        payload.Name,
		Description: payload.Description,
		Image:       image,
		Metadata:    metadata,
	}

	prices := make([]models.Price, 0, len(payload.Prices))
	for _, p := range payload.Prices {
		var amount *int64
		if p.AmountType == "fixed" {
			v := p.PriceAmount
			amount = &v
		}
		var interval *string
		if p.Type == models.PriceTypeRecurring && strings.TrimSpace(p.RecurringInterval) != "" {
			v := p.RecurringInterval
			interval = &v
		}
		prices = append(prices, models.Price{
			ID:                p.ID,
			ProductID:         payload.ID,
			Amount:            amount,
			Type:              p.Type,
			RecurringInterval: interval,
		})
	}

	return product, prices
}

// mapSubscriptionRow maps a provider subscription snapshot onto its Ledger
// row. CancelAt mirrors the period end only while cancel_at_period_end is
// set and a period end exists.
func mapSubscriptionRow(snapshot *Subscription, userID string) *models.Subscription {
	row := &models.Subscription{
		ID:                 snapshot.ID,
		UserID:             userID,
		Status:             snapshot.Status,
		PriceID:            snapshot.Price.ID,
		CancelAtPeriodEnd:  snapshot.CancelAtPeriodEnd,
		CurrentPeriodStart: snapshot.CurrentPeriodStart,
		CurrentPeriodEnd:   snapshot.CurrentPeriodEnd,
		Created:            snapshot.CreatedAt,
		EndedAt:            snapshot.EndedAt,
	}
	if snapshot.CancelAtPeriodEnd && snapshot.CurrentPeriodEnd != nil {
		cancelAt := *snapshot.CurrentPeriodEnd
		row.CancelAt = &cancelAt
	}
	return row
}
