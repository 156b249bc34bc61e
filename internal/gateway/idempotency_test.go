package gateway

import (
	"errors"
	"strings"
	"testing"
)

// fakeStore is an in-memory IdempotencyStore with first-write-wins
// semantics, mirroring the sqlite implementation.
type fakeStore struct {
	records map[string]string
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]string)}
}

func (s *fakeStore) LookupIdempotency(key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.records[key], nil
}

func (s *fakeStore) RecordIdempotency(key, sessionID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if existing, ok := s.records[key]; ok {
		return existing, nil
	}
	s.records[key] = sessionID
	return sessionID, nil
}

func TestResolve_KeyDerivation(t *testing.T) {
	r := NewIdempotencyResolver(nil)

	if got := r.Resolve("abc123"); got != "cs_mock_abc123" {
		t.Errorf("Resolve = %q, want cs_mock_abc123", got)
	}
	// Deterministic: same key, same identifier.
	if r.Resolve("abc123") != r.Resolve("abc123") {
		t.Error("same key must resolve to the same identifier")
	}
}

func TestResolve_EmptyKeyIsTimeBased(t *testing.T) {
	r := NewIdempotencyResolver(nil)
	got := r.Resolve("")
	if !strings.HasPrefix(got, "cs_mock_") {
		t.Errorf("Resolve(\"\") = %q, want cs_mock_ prefix", got)
	}
	if got == "cs_mock_" {
		t.Error("time-based identifier must carry a suffix")
	}
}

func TestResolve_StoreFirstWriteWins(t *testing.T) {
	store := newFakeStore()
	store.records["k1"] = "cs_mock_original"

	r := NewIdempotencyResolver(store)
	if got := r.Resolve("k1"); got != "cs_mock_original" {
		t.Errorf("Resolve = %q, want the recorded identifier", got)
	}
}

func TestResolve_StoreErrorFallsBack(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("disk full")

	r := NewIdempotencyResolver(store)
	if got := r.Resolve("k2"); got != "cs_mock_k2" {
		t.Errorf("Resolve = %q, want derivation fallback", got)
	}
}
