package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/mhofer/billingsync/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCreatesMappingExactlyOnce(t *testing.T) {
	repo := newFakeRepository()
	client := newFakeClient()
	resolver := NewResolver(repo, client)

	id, err := resolver.Resolve(context.Background(), "11111111-1111-4111-8111-111111111111", "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	assert.Equal(t, 1, client.createCalls)
	mapping, ok := repo.mappingsByUser["11111111-1111-4111-8111-111111111111"]
	require.True(t, ok)
	assert.Equal(t, id, mapping.BillingCustomerID)

	// The customer's metadata carries the internal user id for reverse
	// lookup.
	created := client.customers[id]
	require.NotNil(t, created)
	assert.Equal(t, "11111111-1111-4111-8111-111111111111", created.Metadata["user_id"])

	// A second call returns the same id without creating another identity.
	again, err := resolver.Resolve(context.Background(), "11111111-1111-4111-8111-111111111111", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, client.createCalls)
}

func TestResolveCorrectsDriftedMapping(t *testing.T) {
	repo := newFakeRepository()
	client := newFakeClient()
	resolver := NewResolver(repo, client)

	seedMapping(repo, "user-1", "cus_stale")
	// The provider answers the stale id with a record carrying a different
	// id (merged customer): the fetched id wins.
	client.customers["cus_stale"] = &Customer{ID: "cus_merged", Email: "ada@example.com"}

	id, err := resolver.Resolve(context.Background(), "user-1", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_merged", id)
	assert.Equal(t, "cus_merged", repo.mappingsByUser["user-1"].BillingCustomerID)
	assert.Equal(t, 0, client.createCalls)
}

func TestResolveRecreatesDeletedIdentity(t *testing.T) {
	repo := newFakeRepository()
	client := newFakeClient()
	resolver := NewResolver(repo, client)

	seedMapping(repo, "user-1", "cus_gone")

	id, err := resolver.Resolve(context.Background(), "user-1", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, client.createCalls)
	assert.Equal(t, id, repo.mappingsByUser["user-1"].BillingCustomerID)
	assert.NotEqual(t, "cus_gone", id)
}

func TestResolveLedgerLookupFailure(t *testing.T) {
	repo := newFakeRepository()
	repo.lookupErr = errors.New("connection refused")
	resolver := NewResolver(repo, newFakeClient())

	_, err := resolver.Resolve(context.Background(), "user-1", "ada@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
}

func TestResolveBillingUnavailable(t *testing.T) {
	repo := newFakeRepository()
	client := newFakeClient()
	client.getErr = ErrBillingUnavailable
	resolver := NewResolver(repo, client)

	seedMapping(repo, "user-1", "cus_1")

	_, err := resolver.Resolve(context.Background(), "user-1", "ada@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBillingUnavailable)
}

func TestResolveEmptyUserID(t *testing.T) {
	client := newFakeClient()
	resolver := NewResolver(newFakeRepository(), client)

	_, err := resolver.Resolve(context.Background(), "   ", "ada@example.com")
	require.Error(t, err)
	// Input validation, not a provider failure: nothing was created and no
	// taxonomy sentinel applies.
	assert.NotErrorIs(t, err, ErrBillingCreateFailed)
	assert.Equal(t, 0, client.createCalls)
}

func TestResolveCreateWithoutID(t *testing.T) {
	repo := newFakeRepository()
	resolver := NewResolver(repo, &emptyIDClient{newFakeClient()})

	_, err := resolver.Resolve(context.Background(), "user-1", "ada@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBillingCreateFailed)
	assert.Empty(t, repo.mappingsByUser)
}

// emptyIDClient answers customer creation with a record missing its id.
type emptyIDClient struct {
	*fakeClient
}

func (c *emptyIDClient) CreateCustomer(ctx context.Context, email string, metadata map[string]string) (*Customer, error) {
	return &Customer{Email: email}, nil
}

func seedMapping(repo *fakeRepository, userID, billingCustomerID string) {
	_ = repo.UpsertCustomerMapping(&models.CustomerMapping{
		UserID:            userID,
		BillingCustomerID: billingCustomerID,
	})
	repo.mappingUpserts = 0
}
