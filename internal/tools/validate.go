package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"

	"github.com/partnergate/partnergate/internal/domain"
)

// ─── Input Validation ───────────────────────────────────────────────────────
// ValidateInput checks raw parameters against the tool's declared schema and
// returns the typed params. Every violated constraint contributes one
// message, in declaration order. The caller maps a *domain.ValidationError
// to the BAD_PARAMS taxonomy code.

// Typed parameter structs, one per tool.

type PingParams struct {
	Name string
}

type SearchProductsParams struct {
	Query string
	Limit int
}

type CheckoutItem struct {
	PriceID  string `json:"priceId"`
	Quantity int    `json:"quantity"`
}

type CheckoutSessionParams struct {
	Items      []CheckoutItem
	SuccessURL string
	CancelURL  string
}

type SimpleCheckoutParams struct {
	ProductName string
	Price       float64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

type PaymentStatusParams struct {
	PaymentIntentID string
}

// ValidateInput validates raw params for the named tool. An absent or empty
// payload is treated as an empty object. Unknown tool names produce a
// *domain.UnknownToolError.
func (r *Registry) ValidateInput(name string, raw json.RawMessage) (any, error) {
	if _, ok := r.byName[name]; !ok {
		return nil, &domain.UnknownToolError{Name: name}
	}
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}

	switch name {
	case ToolPing:
		return validatePing(raw)
	case ToolSearchProducts:
		return validateSearchProducts(raw)
	case ToolCheckoutSession:
		return validateCheckoutSession(raw)
	case ToolSimpleCheckout:
		return validateSimpleCheckout(raw)
	case ToolPaymentStatus:
		return validatePaymentStatus(raw)
	}
	return nil, &domain.UnknownToolError{Name: name}
}

func validatePing(raw json.RawMessage) (PingParams, error) {
	var in struct {
		Name *string `json:"name"`
	}
	if err := decodeParams(raw, &in); err != nil {
		return PingParams{}, err
	}
	var p PingParams
	if in.Name != nil {
		p.Name = *in.Name
	}
	return p, nil
}

func validateSearchProducts(raw json.RawMessage) (SearchProductsParams, error) {
	var in struct {
		Query *string  `json:"query"`
		Limit *float64 `json:"limit"`
	}
	if err := decodeParams(raw, &in); err != nil {
		return SearchProductsParams{}, err
	}

	var msgs []string
	p := SearchProductsParams{Limit: 10}

	if in.Query == nil || *in.Query == "" {
		msgs = append(msgs, "query is required and must be a non-empty string")
	} else {
		p.Query = *in.Query
	}
	if in.Limit != nil {
		if !isPositiveInt(*in.Limit) {
			msgs = append(msgs, "limit must be a positive integer")
		} else {
			p.Limit = int(*in.Limit)
		}
	}

	if len(msgs) > 0 {
		return SearchProductsParams{}, &domain.ValidationError{Messages: msgs}
	}
	return p, nil
}

func validateCheckoutSession(raw json.RawMessage) (CheckoutSessionParams, error) {
	var in struct {
		Items *[]struct {
			PriceID  *string  `json:"priceId"`
			Quantity *float64 `json:"quantity"`
		} `json:"items"`
		SuccessURL *string `json:"successUrl"`
		CancelURL  *string `json:"cancelUrl"`
	}
	if err := decodeParams(raw, &in); err != nil {
		return CheckoutSessionParams{}, err
	}

	var msgs []string
	var p CheckoutSessionParams

	if in.Items == nil || len(*in.Items) == 0 {
		msgs = append(msgs, "items is required and must be a non-empty array")
	} else {
		for i, it := range *in.Items {
			item := CheckoutItem{}
			if it.PriceID == nil || *it.PriceID == "" {
				msgs = append(msgs, fmt.Sprintf("items[%d].priceId must be a non-empty string", i))
			} else {
				item.PriceID = *it.PriceID
			}
			if it.Quantity == nil || !isPositiveInt(*it.Quantity) {
				msgs = append(msgs, fmt.Sprintf("items[%d].quantity must be a positive integer", i))
			} else {
				item.Quantity = int(*it.Quantity)
			}
			p.Items = append(p.Items, item)
		}
	}
	if in.SuccessURL == nil || !isValidURL(*in.SuccessURL) {
		msgs = append(msgs, "successUrl must be a valid absolute URL")
	} else {
		p.SuccessURL = *in.SuccessURL
	}
	if in.CancelURL == nil || !isValidURL(*in.CancelURL) {
		msgs = append(msgs, "cancelUrl must be a valid absolute URL")
	} else {
		p.CancelURL = *in.CancelURL
	}

	if len(msgs) > 0 {
		return CheckoutSessionParams{}, &domain.ValidationError{Messages: msgs}
	}
	return p, nil
}

func validateSimpleCheckout(raw json.RawMessage) (SimpleCheckoutParams, error) {
	var in struct {
		ProductName *string  `json:"productName"`
		Price       *float64 `json:"price"`
		Currency    *string  `json:"currency"`
		SuccessURL  *string  `json:"successUrl"`
		CancelURL   *string  `json:"cancelUrl"`
	}
	if err := decodeParams(raw, &in); err != nil {
		return SimpleCheckoutParams{}, err
	}

	var msgs []string
	p := SimpleCheckoutParams{Currency: "usd"}

	if in.ProductName == nil || *in.ProductName == "" {
		msgs = append(msgs, "productName is required and must be a non-empty string")
	} else {
		p.ProductName = *in.ProductName
	}
	if in.Price == nil || *in.Price <= 0 {
		msgs = append(msgs, "price must be a positive number")
	} else {
		p.Price = *in.Price
	}
	if in.Currency != nil && *in.Currency != "" {
		p.Currency = *in.Currency
	}
	if in.SuccessURL != nil {
		if !isValidURL(*in.SuccessURL) {
			msgs = append(msgs, "successUrl must be a valid absolute URL")
		} else {
			p.SuccessURL = *in.SuccessURL
		}
	}
	if in.CancelURL != nil {
		if !isValidURL(*in.CancelURL) {
			msgs = append(msgs, "cancelUrl must be a valid absolute URL")
		} else {
			p.CancelURL = *in.CancelURL
		}
	}

	if len(msgs) > 0 {
		return SimpleCheckoutParams{}, &domain.ValidationError{Messages: msgs}
	}
	return p, nil
}

func validatePaymentStatus(raw json.RawMessage) (PaymentStatusParams, error) {
	var in struct {
		PaymentIntentID *string `json:"paymentIntentId"`
	}
	if err := decodeParams(raw, &in); err != nil {
		return PaymentStatusParams{}, err
	}
	if in.PaymentIntentID == nil || *in.PaymentIntentID == "" {
		return PaymentStatusParams{}, &domain.ValidationError{
			Messages: []string{"paymentIntentId is required and must be a non-empty string"},
		}
	}
	return PaymentStatusParams{PaymentIntentID: *in.PaymentIntentID}, nil
}

// decodeParams unmarshals into the intermediate struct. A type mismatch is
// a constraint violation (BAD_PARAMS), not a malformed body: the body-level
// JSON already parsed by the time params reach the registry.
func decodeParams(raw json.RawMessage, into any) error {
	if err := json.Unmarshal(raw, into); err != nil {
		if typeErr, ok := err.(*json.UnmarshalTypeError); ok && typeErr.Field != "" {
			return &domain.ValidationError{
				Messages: []string{fmt.Sprintf("%s has invalid type (expected %s)", typeErr.Field, typeErr.Type)},
			}
		}
		return &domain.ValidationError{Messages: []string{"params must be a JSON object"}}
	}
	return nil
}

func isPositiveInt(f float64) bool {
	return f > 0 && f == math.Trunc(f)
}

// isValidURL accepts only syntactically valid absolute URLs.
func isValidURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
