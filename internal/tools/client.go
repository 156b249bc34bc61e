package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/partnergate/partnergate/internal/domain"
)

// ─── Collaborator Client ────────────────────────────────────────────────────
// The commerce (Shopify) and payment (Stripe) platforms are external
// collaborators. In demo mode every call is served from mocks; otherwise
// the client performs the real upstream HTTP call. Upstream failures are
// raised as typed errors so the classifier matches on a tag, never on a
// message substring.

const (
	defaultStripeBaseURL = "https://api.stripe.com"
	shopifyAPIVersion    = "2024-01"
)

// Client executes tool business logic against the collaborators.
type Client struct {
	DemoMode bool
	SiteURL  string

	StripeSecretKey    string
	StripeBaseURL      string // overridable in tests
	ShopifyStoreURL    string
	ShopifyAccessToken string

	HTTPClient *http.Client
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) stripeBaseURL() string {
	if c.StripeBaseURL != "" {
		return c.StripeBaseURL
	}
	return defaultStripeBaseURL
}

// ─── Result Types ───────────────────────────────────────────────────────────

type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Price       string `json:"price"`
	Vendor      string `json:"vendor"`
	ProductType string `json:"productType"`
	CreatedAt   string `json:"createdAt"`
}

type SearchProductsResult struct {
	OK       bool      `json:"ok"`
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Query    string    `json:"query"`
}

type PingResult struct {
	OK        bool   `json:"ok"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type CheckoutSessionResult struct {
	OK             bool           `json:"ok"`
	SessionID      string         `json:"sessionId"`
	URL            string         `json:"url"`
	Items          []CheckoutItem `json:"items"`
	SuccessURL     string         `json:"successUrl"`
	CancelURL      string         `json:"cancelUrl"`
	CreatedAt      string         `json:"createdAt"`
	IdempotencyKey string         `json:"idempotencyKey,omitempty"`
}

type SimpleCheckoutResult struct {
	CheckoutURL   string  `json:"checkout_url"`
	SessionID     string  `json:"session_id"`
	PaymentIntent *string `json:"payment_intent"`
}

type PaymentStatusResult struct {
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// ─── ping ───────────────────────────────────────────────────────────────────

// Ping needs no collaborator; it greets and timestamps.
func Ping(p PingParams) PingResult {
	name := p.Name
	if name == "" {
		name = "World"
	}
	return PingResult{
		OK:        true,
		Message:   fmt.Sprintf("Hello, %s!", name),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ─── shopify.searchProducts ─────────────────────────────────────────────────

func (c *Client) SearchProducts(ctx context.Context, p SearchProductsParams) (*SearchProductsResult, error) {
	if c.DemoMode {
		n := p.Limit
		if n > 5 {
			n = 5
		}
		products := make([]Product, n)
		for i := range products {
			products[i] = Product{
				ID:          fmt.Sprintf("prod_%d", i+1),
				Title:       fmt.Sprintf("Mock Product %d - %s", i+1, p.Query),
				Price:       fmt.Sprintf("%.2f", 19.99+float64(i)*10),
				Vendor:      "Demo Vendor",
				ProductType: "Demo Type",
				CreatedAt:   time.Now().UTC().Format(time.RFC3339),
			}
		}
		return &SearchProductsResult{OK: true, Products: products, Total: 5, Query: p.Query}, nil
	}

	if c.ShopifyStoreURL == "" || c.ShopifyAccessToken == "" {
		return nil, domain.ErrNotImplemented
	}

	endpoint := fmt.Sprintf("%s/admin/api/%s/products.json?limit=%d&title=%s",
		strings.TrimRight(c.ShopifyStoreURL, "/"), shopifyAPIVersion, p.Limit, url.QueryEscape(p.Query))

	var upstream struct {
		Products []struct {
			ID          int64  `json:"id"`
			Title       string `json:"title"`
			Vendor      string `json:"vendor"`
			ProductType string `json:"product_type"`
			CreatedAt   string `json:"created_at"`
			Variants    []struct {
				Price string `json:"price"`
			} `json:"variants"`
		} `json:"products"`
	}
	headers := map[string]string{"X-Shopify-Access-Token": c.ShopifyAccessToken}
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, headers, &upstream); err != nil {
		return nil, err
	}

	products := make([]Product, len(upstream.Products))
	for i, up := range upstream.Products {
		price := ""
		if len(up.Variants) > 0 {
			price = up.Variants[0].Price
		}
		products[i] = Product{
			ID:          strconv.FormatInt(up.ID, 10),
			Title:       up.Title,
			Price:       price,
			Vendor:      up.Vendor,
			ProductType: up.ProductType,
			CreatedAt:   up.CreatedAt,
		}
	}
	return &SearchProductsResult{OK: true, Products: products, Total: len(products), Query: p.Query}, nil
}

// ─── stripe.createCheckoutSession (item-based) ──────────────────────────────

// CreateCheckoutSession creates an item-based checkout session. sessionID
// is the identifier derived by the idempotency resolver; idempotencyKey is
// forwarded to the upstream and echoed in the result when present.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutSessionParams, sessionID, idempotencyKey string) (*CheckoutSessionResult, error) {
	if c.DemoMode {
		return &CheckoutSessionResult{
			OK:             true,
			SessionID:      sessionID,
			URL:            "https://checkout.stripe.com/pay/" + sessionID,
			Items:          p.Items,
			SuccessURL:     p.SuccessURL,
			CancelURL:      p.CancelURL,
			CreatedAt:      time.Now().UTC().Format(time.RFC3339),
			IdempotencyKey: idempotencyKey,
		}, nil
	}

	if c.StripeSecretKey == "" {
		return nil, domain.ErrNotImplemented
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	for i, item := range p.Items {
		form.Set(fmt.Sprintf("line_items[%d][price]", i), item.PriceID)
		form.Set(fmt.Sprintf("line_items[%d][quantity]", i), strconv.Itoa(item.Quantity))
	}

	var session struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.postStripeForm(ctx, "/v1/checkout/sessions", form, idempotencyKey, &session); err != nil {
		return nil, err
	}
	return &CheckoutSessionResult{
		OK:             true,
		SessionID:      session.ID,
		URL:            session.URL,
		Items:          p.Items,
		SuccessURL:     p.SuccessURL,
		CancelURL:      p.CancelURL,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		IdempotencyKey: idempotencyKey,
	}, nil
}

// ─── stripe_create_checkout_session (simple) ────────────────────────────────

// CreateSimpleCheckout creates a checkout session from a product name and a
// decimal price. The price is converted to minor units (×100) because the
// upstream requires amounts in the smallest currency unit.
func (c *Client) CreateSimpleCheckout(ctx context.Context, p SimpleCheckoutParams) (*SimpleCheckoutResult, error) {
	// Stripe requires at least $0.50 USD or equivalent.
	minimum := 0.01
	if p.Currency == "usd" {
		minimum = 0.50
	}
	if p.Price < minimum {
		return nil, &domain.ValidationError{
			Messages: []string{fmt.Sprintf("price must be at least %.2f %s", minimum, strings.ToUpper(p.Currency))},
		}
	}

	if c.DemoMode {
		pi := "demo_pi_123"
		return &SimpleCheckoutResult{
			CheckoutURL:   "https://example.com/demo-checkout",
			SessionID:     "demo_session_123",
			PaymentIntent: &pi,
		}, nil
	}

	if c.StripeSecretKey == "" {
		return nil, domain.ErrNotImplemented
	}

	successURL := p.SuccessURL
	cancelURL := p.CancelURL
	site := c.SiteURL
	if site == "" {
		site = "http://localhost:3000"
	}
	if successURL == "" {
		successURL = site + "/success?session_id={CHECKOUT_SESSION_ID}"
	}
	if cancelURL == "" {
		cancelURL = site + "/cancel"
	}

	unitAmount := int64(p.Price*100 + 0.5) // decimal amount -> minor units

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price_data][currency]", p.Currency)
	form.Set("line_items[0][price_data][product_data][name]", p.ProductName)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(unitAmount, 10))
	form.Set("line_items[0][quantity]", "1")

	var session struct {
		ID            string  `json:"id"`
		URL           string  `json:"url"`
		PaymentIntent *string `json:"payment_intent"`
	}
	if err := c.postStripeForm(ctx, "/v1/checkout/sessions", form, "", &session); err != nil {
		return nil, err
	}
	return &SimpleCheckoutResult{
		CheckoutURL:   session.URL,
		SessionID:     session.ID,
		PaymentIntent: session.PaymentIntent,
	}, nil
}

// ─── stripe_get_payment_status ──────────────────────────────────────────────

func (c *Client) GetPaymentStatus(ctx context.Context, p PaymentStatusParams) (*PaymentStatusResult, error) {
	if c.DemoMode {
		return &PaymentStatusResult{Status: "succeeded", Amount: 2999, Currency: "usd"}, nil
	}

	if c.StripeSecretKey == "" {
		return nil, domain.ErrNotImplemented
	}

	var intent struct {
		Status   string  `json:"status"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	}
	endpoint := c.stripeBaseURL() + "/v1/payment_intents/" + url.PathEscape(p.PaymentIntentID)
	headers := map[string]string{"Authorization": "Bearer " + c.StripeSecretKey}
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, headers, &intent); err != nil {
		return nil, err
	}
	return &PaymentStatusResult{Status: intent.Status, Amount: intent.Amount, Currency: intent.Currency}, nil
}

// ─── Upstream plumbing ──────────────────────────────────────────────────────

func (c *Client) postStripeForm(ctx context.Context, path string, form url.Values, idempotencyKey string, out any) error {
	headers := map[string]string{
		"Authorization": "Bearer " + c.StripeSecretKey,
		"Content-Type":  "application/x-www-form-urlencoded",
	}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	return c.doJSON(ctx, http.MethodPost, c.stripeBaseURL()+path, strings.NewReader(form.Encode()), headers, out)
}

// doJSON performs one upstream HTTP call. Timeouts become
// domain.ErrUpstreamTimeout; non-2xx statuses become *domain.UpstreamError.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body io.Reader, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build upstream request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.ErrUpstreamTimeout
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return domain.ErrUpstreamTimeout
		}
		return fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.UpstreamError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("HTTP %d from %s: %s", resp.StatusCode, req.URL.Host, strings.TrimSpace(string(snippet))),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}
