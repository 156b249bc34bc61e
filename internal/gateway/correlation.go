package gateway

import "github.com/google/uuid"

// ─── Correlation Context ────────────────────────────────────────────────────
// Every request carries one correlation ID: caller-supplied verbatim when
// present (caller-side tracing continuity), otherwise freshly generated.
// The resolved ID is echoed in the response header on every response and
// embedded in every failure envelope.

// HeaderCorrelationID is the request/response header carrying the ID.
const HeaderCorrelationID = "X-Correlation-Id"

// HeaderIdempotencyKey is the request header carrying the client-supplied
// idempotency key for mutating tools.
const HeaderIdempotencyKey = "X-Idempotency-Key"

// HeaderSSEConnectionID selects an open SSE connection for out-of-band
// delivery of a tool response.
const HeaderSSEConnectionID = "X-SSE-Connection-Id"

// ResolveCorrelationID returns the caller-supplied value verbatim if
// non-empty, else a fresh UUID.
func ResolveCorrelationID(supplied string) string {
	if supplied != "" {
		return supplied
	}
	return uuid.New().String()
}
