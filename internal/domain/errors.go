package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Collaborator code
// raises these tagged variants explicitly so classification is a type
// match, never a message heuristic.

var (
	// ErrOriginBlocked means the request origin failed the allow-list check.
	ErrOriginBlocked = errors.New("origin not allowed")

	// ErrBadJSON means the request body was not well-formed JSON.
	ErrBadJSON = errors.New("malformed JSON body")

	// ErrUpstreamTimeout means the collaborator call exceeded its deadline.
	ErrUpstreamTimeout = errors.New("upstream request timed out")

	// ErrStoreUnavailable means the idempotency store could not be reached.
	ErrStoreUnavailable = errors.New("idempotency store unreachable")

	// ErrNotImplemented means the real collaborator branch was requested
	// without credentials configured.
	ErrNotImplemented = errors.New("real upstream API not configured; set credentials or enable demo mode")
)

// ValidationError carries one message per violated input constraint, in
// declaration order.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid parameters: " + strings.Join(e.Messages, "; ")
}

// UnknownToolError means the requested tool name is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Name)
}

// UpstreamError is a collaborator-reported HTTP failure. The gateway
// re-maps both 4xx and 5xx classes to 502 — "this gateway's upstream
// failed", not "your request was wrong".
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("upstream error: %s", e.Message)
}

// OutputMismatchError means a tool produced a result that fails its own
// output contract. This is a programming-error class failure and is never
// exposed to the caller as a client-fault code.
type OutputMismatchError struct {
	Tool   string
	Reason string
}

func (e *OutputMismatchError) Error() string {
	return fmt.Sprintf("tool %s produced invalid output: %s", e.Tool, e.Reason)
}
