package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventProduct(t *testing.T) {
	event, err := ParseEvent("evt_1", []byte(`{
		"type": "product.updated",
		"data": {"id": "P1", "name": "Lite", "prices": []}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventProductUpdated, event.Type)
	require.NotNil(t, event.Product)
	assert.Equal(t, "P1", event.Product.ID)
	assert.Nil(t, event.Subscription)
}

func TestParseEventSubscription(t *testing.T) {
	event, err := ParseEvent("evt_2", []byte(`{
		"type": "subscription.created",
		"data": {"id": "sub_1", "customer": {"id": "cus_1", "email": "ada@example.com"}}
	}`))
	require.NoError(t, err)
	require.NotNil(t, event.Subscription)
	assert.Equal(t, "sub_1", event.Subscription.ID)
	assert.Equal(t, "cus_1", event.Subscription.Customer.ID)
	assert.Nil(t, event.Product)
}

func TestParseEventRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"product without id", `{"type": "product.created", "data": {"name": "Lite"}}`},
		{"product without name", `{"type": "product.created", "data": {"id": "P1"}}`},
		{"subscription without id", `{"type": "subscription.updated", "data": {"customer": {"id": "cus_1"}}}`},
		{"subscription without customer id", `{"type": "subscription.updated", "data": {"id": "sub_1", "customer": {"email": "a@b.co"}}}`},
		{"invalid price type", `{"type": "product.created", "data": {"id": "P1", "name": "Lite", "prices": [{"id": "PR1", "type": "weekly"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvent("evt", []byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestParseEventUnknownType(t *testing.T) {
	_, err := ParseEvent("evt", []byte(`{"type": "order.created", "data": {}}`))
	assert.Error(t, err)
}

func TestParseEventBadJSON(t *testing.T) {
	_, err := ParseEvent("evt", []byte(`{`))
	assert.Error(t, err)
}

func TestIsReconcilable(t *testing.T) {
	for _, eventType := range []string{
		EventProductCreated, EventProductUpdated,
		EventSubscriptionCreated, EventSubscriptionUpdated,
	} {
		assert.True(t, IsReconcilable(eventType), eventType)
	}
	for _, eventType := range []string{"", "order.created", "benefit.updated"} {
		assert.False(t, IsReconcilable(eventType), eventType)
	}
}
