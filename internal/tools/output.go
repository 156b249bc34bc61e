package tools

import (
	"time"

	"github.com/partnergate/partnergate/internal/domain"
)

// ─── Output Validation ──────────────────────────────────────────────────────
// Validation is symmetric: before a success envelope leaves the dispatcher,
// the result is checked against the tool's output contract. A mismatch here
// is a bug in the tool layer, classified as INTERNAL_ERROR and never
// surfaced as a client-fault code.

// CheckOutput verifies that result satisfies the named tool's output
// contract.
func CheckOutput(name string, result any) error {
	mismatch := func(reason string) error {
		return &domain.OutputMismatchError{Tool: name, Reason: reason}
	}

	switch r := result.(type) {
	case PingResult:
		if !r.OK || r.Message == "" {
			return mismatch("ok and message are required")
		}
		if _, err := time.Parse(time.RFC3339, r.Timestamp); err != nil {
			return mismatch("timestamp is not RFC 3339")
		}
	case *SearchProductsResult:
		if r == nil || !r.OK {
			return mismatch("ok must be true")
		}
		if r.Products == nil {
			return mismatch("products must be an array")
		}
	case *CheckoutSessionResult:
		if r == nil || !r.OK {
			return mismatch("ok must be true")
		}
		if r.SessionID == "" || r.URL == "" {
			return mismatch("sessionId and url are required")
		}
		if _, err := time.Parse(time.RFC3339, r.CreatedAt); err != nil {
			return mismatch("createdAt is not RFC 3339")
		}
	case *SimpleCheckoutResult:
		if r == nil || r.SessionID == "" || r.CheckoutURL == "" {
			return mismatch("session_id and checkout_url are required")
		}
	case *PaymentStatusResult:
		if r == nil || r.Status == "" || r.Currency == "" {
			return mismatch("status and currency are required")
		}
	default:
		return mismatch("unrecognized result type")
	}
	return nil
}
