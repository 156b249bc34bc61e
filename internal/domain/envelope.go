package domain

// ─── Response Envelopes ─────────────────────────────────────────────────────
// Every transport returns the same normalized wrapper: a success body with
// ok:true, or a Failure with a stable taxonomy code. Exactly one of the two
// shapes per response, and the resolved correlation ID always rides along.

// ErrorBody is the error payload inside a Failure envelope.
type ErrorBody struct {
	Code          string   `json:"code"`
	Message       string   `json:"message"`
	Details       []string `json:"details,omitempty"`
	CorrelationID string   `json:"correlationId"`
}

// Failure is the normalized error envelope sent to callers.
type Failure struct {
	OK    bool      `json:"ok"`
	Error ErrorBody `json:"error"`
}

// NewFailure builds a Failure envelope. An empty correlation ID is recorded
// as "unknown" rather than omitted, so the field is always present.
func NewFailure(code, message, correlationID string, details []string) Failure {
	if correlationID == "" {
		correlationID = "unknown"
	}
	return Failure{
		Error: ErrorBody{
			Code:          code,
			Message:       message,
			Details:       details,
			CorrelationID: correlationID,
		},
	}
}
