package health

import (
	"context"
	"errors"
	"testing"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping() error { return s.err }

func runOnce(c *Checker) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Run(ctx) // runAll executes once before the loop observes ctx
}

func TestChecker_HealthyStore(t *testing.T) {
	c := NewChecker(&stubPinger{})
	runOnce(c)

	statuses := c.Statuses()
	if len(statuses) != 1 {
		t.Fatalf("len(statuses) = %d, want 1", len(statuses))
	}
	s := statuses[0]
	if s.Name != "idempotency_store" || !s.Healthy || s.Error != "" {
		t.Errorf("status = %+v", s)
	}
	if s.CheckedAt.IsZero() {
		t.Error("CheckedAt not set")
	}
}

func TestChecker_UnhealthyStore(t *testing.T) {
	c := NewChecker(&stubPinger{err: errors.New("locked")})
	runOnce(c)

	s := c.Statuses()[0]
	if s.Healthy || s.Error != "locked" {
		t.Errorf("status = %+v", s)
	}
}

func TestChecker_NoStore(t *testing.T) {
	c := NewChecker(nil)
	runOnce(c)
	if got := len(c.Statuses()); got != 0 {
		t.Errorf("len(statuses) = %d, want 0", got)
	}
}
