package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mhofer/billingsync/internal/pkg/env"
)

const (
	defaultPolarAPIBaseURL        = "https://api.polar.sh/v1"
	defaultPolarSandboxAPIBaseURL = "https://sandbox-api.polar.sh/v1"
)

// Client is the provider API surface the core depends on. The resolver and
// reconciler accept this interface so tests can substitute fakes.
type Client interface {
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	CreateCustomer(ctx context.Context, email string, metadata map[string]string) (*Customer, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
}

// PolarClient talks to the Polar REST API.
type PolarClient struct {
	AccessToken string
	APIBaseURL  string

	HTTPClient *http.Client
}

var _ Client = (*PolarClient)(nil)

// errNotFound marks a provider 404. It wraps ErrBillingUnavailable so only
// the calls that care (customer lookups) need to map it further.
var errNotFound = fmt.Errorf("%w: not found", ErrBillingUnavailable)

func NewPolarClientFromEnv() *PolarClient {
	baseURL := strings.TrimSpace(env.GetEnv("POLAR_API_BASE_URL", ""))
	if baseURL == "" {
		if strings.EqualFold(env.GetEnv("POLAR_SERVER", "production"), "sandbox") {
			baseURL = defaultPolarSandboxAPIBaseURL
		} else {
			baseURL = defaultPolarAPIBaseURL
		}
	}

	return &PolarClient{
		AccessToken: strings.TrimSpace(env.GetEnv("POLAR_ACCESS_TOKEN", "")),
		APIBaseURL:  strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetCustomer fetches a customer by id. Returns ErrCustomerNotFound when the
// provider reports 404, ErrBillingUnavailable for any other failure.
func (c *PolarClient) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty customer id", ErrBillingUnavailable)
	}

	var out Customer
	if err := c.doJSON(ctx, http.MethodGet, "/customers/"+url.PathEscape(id), nil, &out); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, fmt.Errorf("%w: customer response missing id", ErrBillingUnavailable)
	}
	return &out, nil
}

// CreateCustomer creates a new customer record at the provider. The metadata
// bag is stored verbatim; callers embed the internal user id there for
// reverse lookup.
func (c *PolarClient) CreateCustomer(ctx context.Context, email string, metadata map[string]string) (*Customer, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: empty email", ErrBillingUnavailable)
	}

	body := map[string]any{"email": strings.TrimSpace(email)}
	if len(metadata) > 0 {
		body["metadata"] = metadata
	}

	var out Customer
	if err := c.doJSON(ctx, http.MethodPost, "/customers", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSubscription fetches the authoritative subscription snapshot by id.
func (c *PolarClient) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty subscription id", ErrBillingUnavailable)
	}

	var out Subscription
	if err := c.doJSON(ctx, http.MethodGet, "/subscriptions/"+url.PathEscape(id), nil, &out); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: subscription %s not found", ErrBillingUnavailable, id)
		}
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, fmt.Errorf("%w: subscription response missing id", ErrBillingUnavailable)
	}
	return &out, nil
}

// HasActiveSubscription reports whether the customer holds an active
// subscription for the product.
func (c *PolarClient) HasActiveSubscription(ctx context.Context, customerID, productID string) (bool, error) {
	if strings.TrimSpace(customerID) == "" || strings.TrimSpace(productID) == "" {
		return false, fmt.Errorf("%w: customer and product ids are required", ErrBillingUnavailable)
	}

	q := url.Values{}
	q.Set("customer_id", customerID)
	q.Set("product_id", productID)
	q.Set("active", "true")
	q.Set("limit", "1")

	var out struct {
		Items []Subscription `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/subscriptions?"+q.Encode(), nil, &out); err != nil {
		return false, err
	}
	return len(out.Items) > 0, nil
}

// CreateCheckout opens a provider-hosted checkout session for the product and
// returns its URL.
func (c *PolarClient) CreateCheckout(ctx context.Context, productID, customerID, successURL string) (string, error) {
	if strings.TrimSpace(productID) == "" {
		return "", fmt.Errorf("%w: empty product id", ErrBillingUnavailable)
	}

	body := map[string]any{"products": []string{productID}}
	if strings.TrimSpace(customerID) != "" {
		body["customer_id"] = customerID
	}
	if strings.TrimSpace(successURL) != "" {
		body["success_url"] = successURL
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/checkouts", body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.URL) == "" {
		return "", fmt.Errorf("%w: checkout response missing url", ErrBillingUnavailable)
	}
	return out.URL, nil
}

// CreateCustomerPortal opens a customer portal session and returns the
// provider-hosted portal URL.
func (c *PolarClient) CreateCustomerPortal(ctx context.Context, customerID string) (string, error) {
	if strings.TrimSpace(customerID) == "" {
		return "", fmt.Errorf("%w: empty customer id", ErrBillingUnavailable)
	}

	body := map[string]any{"customer_id": customerID}

	var out struct {
		CustomerPortalURL string `json:"customer_portal_url"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/customer-sessions", body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.CustomerPortalURL) == "" {
		return "", fmt.Errorf("%w: customer session response missing portal url", ErrBillingUnavailable)
	}
	return out.CustomerPortalURL, nil
}

func (c *PolarClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrBillingUnavailable, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s failed: status=%d body=%s", ErrBillingUnavailable, method, path, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrBillingUnavailable, err)
		}
	}
	return nil
}
