package gateway

import (
	"fmt"
	"log"
	"time"
)

// ─── Idempotency Resolver ───────────────────────────────────────────────────
// Mutating tools derive their resource identifier from the client-supplied
// idempotency key, so repeated calls with the same key are recognizable as
// the same logical operation. Without a key the identifier is time-based.
//
// With a record store attached the first derived identifier for a key is
// persisted and later calls return it unchanged, surviving restarts. The
// underlying side-effecting call is still not suppressed on retry.

// IdempotencyStore persists key -> derived identifier mappings.
type IdempotencyStore interface {
	LookupIdempotency(key string) (string, error)
	RecordIdempotency(key, sessionID string) (string, error)
}

// IdempotencyResolver derives deterministic identifiers for mutating calls.
type IdempotencyResolver struct {
	store IdempotencyStore // nil: pure derivation, no persistence
}

// NewIdempotencyResolver creates a resolver. store may be nil.
func NewIdempotencyResolver(store IdempotencyStore) *IdempotencyResolver {
	return &IdempotencyResolver{store: store}
}

// Resolve returns the session identifier for key. Same key, same
// identifier; an empty key yields a time-based one.
func (r *IdempotencyResolver) Resolve(key string) string {
	if key == "" {
		return fmt.Sprintf("cs_mock_%d", time.Now().UnixMilli())
	}

	derived := "cs_mock_" + key
	if r.store == nil {
		return derived
	}

	recorded, err := r.store.RecordIdempotency(key, derived)
	if err != nil {
		// Store trouble must not fail the call; fall back to derivation.
		log.Printf("[gateway] idempotency store error for key=%s: %v", key, err)
		return derived
	}
	return recorded
}
