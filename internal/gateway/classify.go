// Package gateway implements the request-validation, correlation, and
// error-taxonomy pipeline that wraps every tool invocation: input schema
// validation, taxonomy classification, correlation-ID propagation,
// idempotency-key handling for mutating tools, and origin allow-listing.
// The dispatcher here is transport-agnostic; HTTP, SSE, and JSON-RPC
// framing are thin adapters around it.
package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/partnergate/partnergate/internal/domain"
)

// ─── Error Taxonomy ─────────────────────────────────────────────────────────

const (
	CodeCORSBlocked   = "CORS_BLOCKED"
	CodeBadJSON       = "BAD_JSON"
	CodeBadParams     = "BAD_PARAMS"
	CodeUnknownTool   = "UNKNOWN_TOOL"
	CodeTimeout       = "TIMEOUT"
	CodeUpstream4xx   = "UPSTREAM_4XX"
	CodeUpstream5xx   = "UPSTREAM_5XX"
	CodeInternalError = "INTERNAL_ERROR"
	CodeNotFound      = "NOT_FOUND"
)

// Classification is the taxonomy code and HTTP status for a failure.
type Classification struct {
	Code    string
	Status  int
	Message string
	Details []string
}

// Classify maps any failure to the fixed taxonomy. Precedence order is
// fixed; the first matching rule wins. Classification matches on typed
// error variants only — never on message substrings.
func Classify(err error) Classification {
	var (
		validation *domain.ValidationError
		unknown    *domain.UnknownToolError
		upstream   *domain.UpstreamError
	)

	switch {
	case errors.Is(err, domain.ErrOriginBlocked):
		return Classification{Code: CodeCORSBlocked, Status: http.StatusForbidden, Message: "Origin not allowed"}

	case errors.Is(err, domain.ErrBadJSON):
		return Classification{Code: CodeBadJSON, Status: http.StatusBadRequest, Message: "Malformed JSON body"}

	case errors.As(err, &validation):
		return Classification{
			Code:    CodeBadParams,
			Status:  http.StatusBadRequest,
			Message: "Invalid parameters",
			Details: validation.Messages,
		}

	case errors.As(err, &unknown):
		return Classification{Code: CodeUnknownTool, Status: http.StatusNotFound, Message: unknown.Error()}

	// The observed mapping is 500, not 504/408. Kept as-is.
	case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return Classification{Code: CodeTimeout, Status: http.StatusInternalServerError, Message: "Request timeout"}

	case errors.As(err, &upstream):
		code := CodeUpstream5xx
		if upstream.Status >= 400 && upstream.Status < 500 {
			code = CodeUpstream4xx
		}
		// 502 regardless of the upstream's own status: the gateway's
		// upstream failed, the caller's request was not wrong.
		return Classification{Code: code, Status: http.StatusBadGateway, Message: upstream.Error()}

	default:
		msg := "Internal server error"
		if err != nil {
			msg = err.Error()
		}
		return Classification{Code: CodeInternalError, Status: http.StatusInternalServerError, Message: msg}
	}
}

// Fail classifies err and wraps it in a Failure envelope carrying the
// resolved correlation ID.
func Fail(err error, correlationID string) (int, domain.Failure) {
	c := Classify(err)
	return c.Status, domain.NewFailure(c.Code, c.Message, correlationID, c.Details)
}
