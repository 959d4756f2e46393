package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mhofer/billingsync/app/models"
	"gorm.io/gorm"
)

// Resolver maps internal users to billing customer ids. The Ledger decides
// which user owns an identity; the provider decides whether that identity
// still exists.
type Resolver struct {
	repo   Repository
	client Client
}

// NewResolver creates a resolver from injected Ledger and provider handles.
func NewResolver(repo Repository, client Client) *Resolver {
	return &Resolver{repo: repo, client: client}
}

// Resolve returns the billing customer id for the user, creating the
// identity at the provider and persisting the mapping when none exists yet.
// A stored id that the provider no longer knows falls through to the
// creation path; a stored id the provider reports under a different id is
// corrected in place. Resolve sits on the purchase path, so every failure is
// surfaced rather than retried.
func (r *Resolver) Resolve(ctx context.Context, userID, email string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("resolve: empty user id")
	}

	mapping, err := r.repo.GetCustomerMappingByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%w: mapping lookup for user %s: %v", ErrLedgerUnavailable, userID, err)
	}

	if mapping != nil && strings.TrimSpace(mapping.BillingCustomerID) != "" {
		customer, err := r.client.GetCustomer(ctx, mapping.BillingCustomerID)
		switch {
		case errors.Is(err, ErrCustomerNotFound):
			// Identity was deleted or merged away at the provider. The
			// remote record is authoritative for existence, so a fresh one
			// is created below.
			log.Printf("[billing] customer %s for user %s no longer exists at provider, recreating", mapping.BillingCustomerID, userID)
		case err != nil:
			return "", err
		default:
			if customer.ID != mapping.BillingCustomerID {
				log.Printf("[billing] customer mapping drift for user %s: ledger=%s provider=%s, correcting", userID, mapping.BillingCustomerID, customer.ID)
				mapping.BillingCustomerID = customer.ID
				if err := r.repo.UpsertCustomerMapping(mapping); err != nil {
					return "", fmt.Errorf("%w: mapping correction for user %s: %v", ErrLedgerUnavailable, userID, err)
				}
			}
			return customer.ID, nil
		}
	}

	created, err := r.client.CreateCustomer(ctx, email, map[string]string{"user_id": userID})
	if err != nil {
		return "", err
	}
	if created == nil || strings.TrimSpace(created.ID) == "" {
		return "", fmt.Errorf("%w: provider returned no customer id for user %s", ErrBillingCreateFailed, userID)
	}

	if err := r.repo.UpsertCustomerMapping(&models.CustomerMapping{
		UserID:            userID,
		BillingCustomerID: created.ID,
	}); err != nil {
		return "", fmt.Errorf("%w: mapping upsert for user %s: %v", ErrLedgerUnavailable, userID, err)
	}

	return created.ID, nil
}
