package sqlite

import (
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenAndPing(t *testing.T) {
	db := openTestDB(t)
	if err := db.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestIdempotencyRecordRoundTrip(t *testing.T) {
	db := openTestDB(t)

	got, err := db.LookupIdempotency("abc123")
	if err != nil {
		t.Fatalf("LookupIdempotency: %v", err)
	}
	if got != "" {
		t.Errorf("lookup of unknown key = %q, want empty", got)
	}

	sid, err := db.RecordIdempotency("abc123", "cs_mock_abc123")
	if err != nil {
		t.Fatalf("RecordIdempotency: %v", err)
	}
	if sid != "cs_mock_abc123" {
		t.Errorf("recorded session id = %q, want cs_mock_abc123", sid)
	}

	got, err = db.LookupIdempotency("abc123")
	if err != nil {
		t.Fatalf("LookupIdempotency: %v", err)
	}
	if got != "cs_mock_abc123" {
		t.Errorf("lookup = %q, want cs_mock_abc123", got)
	}
}

func TestIdempotencyFirstWriteWins(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.RecordIdempotency("k", "cs_mock_k"); err != nil {
		t.Fatalf("RecordIdempotency: %v", err)
	}
	sid, err := db.RecordIdempotency("k", "cs_mock_other")
	if err != nil {
		t.Fatalf("RecordIdempotency (second): %v", err)
	}
	if sid != "cs_mock_k" {
		t.Errorf("second write returned %q, want first-recorded cs_mock_k", sid)
	}
}

func TestCloseThenPingFails(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := db.Ping(); err == nil {
		t.Error("Ping after Close should fail")
	}
}
