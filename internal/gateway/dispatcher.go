package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/partnergate/partnergate/internal/domain"
	"github.com/partnergate/partnergate/internal/infra/metrics"
	"github.com/partnergate/partnergate/internal/tools"
)

// ─── Tool Dispatcher ────────────────────────────────────────────────────────
// One invocation flows RECEIVED → ORIGIN_CHECKED → BODY_PARSED → VALIDATED
// → EXECUTING → SUCCEEDED | FAILED. Origin checking and body parsing happen
// in the transport adapters before Call; everything after is here. Inputs
// and outputs assume no transport framing, so the same dispatcher serves
// HTTP, SSE, and JSON-RPC.

// DefaultCallTimeout bounds one tool invocation end to end.
const DefaultCallTimeout = 10 * time.Second

// Request is the transport-normalized description of one tool invocation.
type Request struct {
	Tool           string
	Params         json.RawMessage
	CorrelationID  string
	IdempotencyKey string
}

// Outcome is the transport-normalized result: exactly one of Payload
// (OK true) or Failure (OK false), plus the HTTP-equivalent status.
type Outcome struct {
	Status  int
	OK      bool
	Payload any
	Failure domain.Failure
}

// Dispatcher validates, executes, and classifies tool invocations.
type Dispatcher struct {
	registry *tools.Registry
	client   *tools.Client
	idem     *IdempotencyResolver
	timeout  time.Duration
}

// NewDispatcher wires the dispatcher. client executes the business logic;
// idem applies to mutating tools.
func NewDispatcher(registry *tools.Registry, client *tools.Client, idem *IdempotencyResolver) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		client:   client,
		idem:     idem,
		timeout:  DefaultCallTimeout,
	}
}

// Registry exposes the tool registry for manifest builders.
func (d *Dispatcher) Registry() *tools.Registry {
	return d.registry
}

// Call runs one tool invocation and returns a normalized outcome. It never
// lets a collaborator's native failure shape escape: every error is
// classified into the taxonomy and wrapped in a failure envelope carrying
// the resolved correlation ID.
func (d *Dispatcher) Call(ctx context.Context, req Request) Outcome {
	start := time.Now()
	metrics.ToolCalls.WithLabelValues(req.Tool).Inc()
	defer func() {
		metrics.DispatchLatency.WithLabelValues(req.Tool).Observe(time.Since(start).Seconds())
	}()

	params, err := d.registry.ValidateInput(req.Tool, req.Params)
	if err != nil {
		return d.fail(req, err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result, err := d.execute(ctx, req, params)
	if err != nil {
		return d.fail(req, err)
	}

	if err := tools.CheckOutput(req.Tool, result); err != nil {
		return d.fail(req, err)
	}

	return Outcome{Status: http.StatusOK, OK: true, Payload: result}
}

func (d *Dispatcher) execute(ctx context.Context, req Request, params any) (any, error) {
	switch req.Tool {
	case tools.ToolPing:
		return tools.Ping(params.(tools.PingParams)), nil

	case tools.ToolSearchProducts:
		return d.client.SearchProducts(ctx, params.(tools.SearchProductsParams))

	case tools.ToolCheckoutSession:
		sessionID := d.idem.Resolve(req.IdempotencyKey)
		return d.client.CreateCheckoutSession(ctx, params.(tools.CheckoutSessionParams), sessionID, req.IdempotencyKey)

	case tools.ToolSimpleCheckout:
		return d.client.CreateSimpleCheckout(ctx, params.(tools.SimpleCheckoutParams))

	case tools.ToolPaymentStatus:
		return d.client.GetPaymentStatus(ctx, params.(tools.PaymentStatusParams))
	}
	// ValidateInput already rejected unknown names; reaching here is a bug.
	return nil, fmt.Errorf("no executor for tool %s", req.Tool)
}

// fail logs the full error server-side, then reduces it to the minimal
// safe envelope.
func (d *Dispatcher) fail(req Request, err error) Outcome {
	status, failure := Fail(err, req.CorrelationID)
	log.Printf("[gateway] tool=%s cid=%s code=%s error: %v",
		req.Tool, req.CorrelationID, failure.Error.Code, err)
	metrics.ToolFailures.WithLabelValues(req.Tool, failure.Error.Code).Inc()
	return Outcome{Status: status, Failure: failure}
}
