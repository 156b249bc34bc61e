package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/partnergate/partnergate/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"origin blocked", domain.ErrOriginBlocked, CodeCORSBlocked, http.StatusForbidden},
		{"bad json", domain.ErrBadJSON, CodeBadJSON, http.StatusBadRequest},
		{"validation", &domain.ValidationError{Messages: []string{"x"}}, CodeBadParams, http.StatusBadRequest},
		{"unknown tool", &domain.UnknownToolError{Name: "nope"}, CodeUnknownTool, http.StatusNotFound},
		{"upstream timeout", domain.ErrUpstreamTimeout, CodeTimeout, http.StatusInternalServerError},
		{"deadline exceeded", context.DeadlineExceeded, CodeTimeout, http.StatusInternalServerError},
		{"upstream 404", &domain.UpstreamError{Status: 404}, CodeUpstream4xx, http.StatusBadGateway},
		{"upstream 503", &domain.UpstreamError{Status: 503}, CodeUpstream5xx, http.StatusBadGateway},
		{"wrapped upstream", fmt.Errorf("call: %w", &domain.UpstreamError{Status: 429}), CodeUpstream4xx, http.StatusBadGateway},
		{"anything else", errors.New("boom"), CodeInternalError, http.StatusInternalServerError},
		{"output mismatch", &domain.OutputMismatchError{Tool: "ping", Reason: "x"}, CodeInternalError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.err)
			if c.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", c.Code, tt.wantCode)
			}
			if c.Status != tt.wantStatus {
				t.Errorf("status = %d, want %d", c.Status, tt.wantStatus)
			}
		})
	}
}

func TestClassify_ValidationDetails(t *testing.T) {
	c := Classify(&domain.ValidationError{Messages: []string{"a", "b"}})
	if len(c.Details) != 2 || c.Details[0] != "a" {
		t.Errorf("details = %v", c.Details)
	}
	if c.Message != "Invalid parameters" {
		t.Errorf("message = %q", c.Message)
	}
}

func TestClassify_UnknownToolNamesTheTool(t *testing.T) {
	c := Classify(&domain.UnknownToolError{Name: "shopfy.searchProducts"})
	if want := "tool not found: shopfy.searchProducts"; c.Message != want {
		t.Errorf("message = %q, want %q", c.Message, want)
	}
}

func TestFail_EnvelopeShape(t *testing.T) {
	status, failure := Fail(domain.ErrBadJSON, "cid-1")
	if status != http.StatusBadRequest {
		t.Errorf("status = %d", status)
	}
	if failure.OK {
		t.Error("ok must be false")
	}
	if failure.Error.CorrelationID != "cid-1" {
		t.Errorf("correlationId = %q", failure.Error.CorrelationID)
	}

	_, failure = Fail(domain.ErrBadJSON, "")
	if failure.Error.CorrelationID != "unknown" {
		t.Errorf("empty correlation id should surface as %q, got %q", "unknown", failure.Error.CorrelationID)
	}
}
