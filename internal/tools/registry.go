// Package tools defines the gateway's tool set: the static schema registry,
// input validation, and the commerce/payment collaborator client.
package tools

import (
	"github.com/partnergate/partnergate/internal/domain"
)

// Tool names, stable across every transport.
const (
	ToolPing             = "ping"
	ToolSearchProducts   = "shopify.searchProducts"
	ToolCheckoutSession  = "stripe.createCheckoutSession"
	ToolSimpleCheckout   = "stripe_create_checkout_session"
	ToolPaymentStatus    = "stripe_get_payment_status"
)

// Registry is the static tool registry. Built once at process start,
// immutable for the process lifetime.
type Registry struct {
	descriptors []domain.ToolDescriptor
	byName      map[string]domain.ToolDescriptor
}

// NewRegistry builds the fixed tool set.
func NewRegistry() *Registry {
	descriptors := defineTools()
	byName := make(map[string]domain.ToolDescriptor, len(descriptors))
	for _, d := range descriptors {
		byName[d.Name] = d
	}
	return &Registry{descriptors: descriptors, byName: byName}
}

// Descriptors returns every registered tool, in registration order.
func (r *Registry) Descriptors() []domain.ToolDescriptor {
	return r.descriptors
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name string) (domain.ToolDescriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

func defineTools() []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        ToolPing,
			Description: "Ping tool that returns a greeting",
			InputSchema: domain.ToolInputSchema{
				Type: "object",
				Properties: map[string]domain.SchemaProperty{
					"name": {Type: "string", Description: "Name to greet"},
				},
			},
		},
		{
			Name:        ToolSearchProducts,
			Description: "Search products in Shopify store",
			InputSchema: domain.ToolInputSchema{
				Type:     "object",
				Required: []string{"query"},
				Properties: map[string]domain.SchemaProperty{
					"query": {Type: "string", Description: "Search query (searches in product title, vendor, and type)"},
					"limit": {Type: "number", Default: 10, Description: "Maximum number of products to return"},
				},
			},
		},
		{
			Name:        ToolCheckoutSession,
			Description: "Create Stripe Checkout Session (legacy API)",
			Mutating:    true,
			InputSchema: domain.ToolInputSchema{
				Type:     "object",
				Required: []string{"items", "successUrl", "cancelUrl"},
				Properties: map[string]domain.SchemaProperty{
					"items": {
						Type: "array",
						Items: &domain.SchemaProperty{
							Type: "object",
							Properties: map[string]domain.SchemaProperty{
								"priceId":  {Type: "string"},
								"quantity": {Type: "number"},
							},
						},
					},
					"successUrl": {Type: "string"},
					"cancelUrl":  {Type: "string"},
				},
			},
		},
		{
			Name:        ToolSimpleCheckout,
			Description: "Create Stripe checkout session with product name and price. Returns a checkout URL that redirects to Stripe payment page.",
			Mutating:    true,
			InputSchema: domain.ToolInputSchema{
				Type:     "object",
				Required: []string{"productName", "price"},
				Properties: map[string]domain.SchemaProperty{
					"productName": {Type: "string", Description: "Name of the product being purchased"},
					"price":       {Type: "number", Description: "Price as a decimal currency amount (e.g., 49.99)"},
					"currency":    {Type: "string", Default: "usd", Description: "Currency code (ISO 4217)"},
				},
			},
		},
		{
			Name:        ToolPaymentStatus,
			Description: "Get payment status for a payment intent. Returns status, amount, and currency.",
			InputSchema: domain.ToolInputSchema{
				Type:     "object",
				Required: []string{"paymentIntentId"},
				Properties: map[string]domain.SchemaProperty{
					"paymentIntentId": {Type: "string", Description: "Stripe payment intent ID"},
				},
			},
		},
	}
}

// BuildManifest assembles the discovery manifest from the registry.
func (r *Registry) BuildManifest(homepage string) domain.Manifest {
	tools := make([]domain.ManifestTool, len(r.descriptors))
	for i, d := range r.descriptors {
		tools[i] = domain.ManifestTool{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.InputSchema,
		}
	}
	return domain.Manifest{
		Name:        "partner-integration-gateway",
		Version:     "0.1.1",
		Description: "Production MCP tools for partner integrations (Shopify + Stripe)",
		Homepage:    homepage,
		Tools:       tools,
	}
}
