package billing

import "time"

// Customer is the provider's customer record as returned by the API.
type Customer struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CustomerRef is the customer reference embedded in subscription payloads.
type CustomerRef struct {
	ID    string `json:"id" validate:"required"`
	Email string `json:"email"`
}

// PriceRef is the price reference embedded in subscription payloads.
type PriceRef struct {
	ID string `json:"id"`
}

// Subscription is the authoritative subscription snapshot fetched from the
// provider API. Webhook payloads are change notifications only; the
// reconciler always works from this shape.
type Subscription struct {
	ID                 string      `json:"id"`
	Status             string      `json:"status"`
	Price              PriceRef    `json:"price"`
	ProductID          string      `json:"product_id"`
	CancelAtPeriodEnd  bool        `json:"cancel_at_period_end"`
	CurrentPeriodStart time.Time   `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time  `json:"current_period_end"`
	CreatedAt          time.Time   `json:"created_at"`
	EndedAt            *time.Time  `json:"ended_at"`
	Customer           CustomerRef `json:"customer"`
}

// ProductMedia is a media asset attached to a product.
type ProductMedia struct {
	PublicURL string `json:"public_url"`
}

// ProductPrice is a price entry inside a product payload. PriceAmount is only
// meaningful when AmountType is "fixed"; RecurringInterval only when Type is
// "recurring".
type ProductPrice struct {
	ID                string `json:"id" validate:"required"`
	AmountType        string `json:"amount_type"`
	PriceAmount       int64  `json:"price_amount"`
	Type              string `json:"type" validate:"required,oneof=one_time recurring"`
	RecurringInterval string `json:"recurring_interval"`
}

// Product is the full product snapshot carried by product webhook events.
type Product struct {
	ID          string         `json:"id" validate:"required"`
	IsArchived  bool           `json:"is_archived"`
	Name        string         `json:"name" validate:"required"`
	Description *string        `json:"description"`
	Medias      []ProductMedia `json:"medias"`
	Metadata    map[string]any `json:"metadata"`
	Prices      []ProductPrice `json:"prices" validate:"dive"`
}
