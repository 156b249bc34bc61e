package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/partnergate/partnergate/internal/gateway"
)

const (
	// MCPProtocolVersion is the protocol revision this server speaks.
	MCPProtocolVersion = "2025-03-26"
	ServerName         = "partnergate-mcp"
	ServerVersion      = "0.1.1"
)

// Server handles MCP JSON-RPC 2.0 requests. Every tools/call runs through
// the shared dispatcher, so validation, idempotency, and taxonomy
// classification behave exactly as on the plain HTTP transport.
type Server struct {
	dispatcher *gateway.Dispatcher
}

// NewServer creates the MCP server around the shared dispatcher.
func NewServer(dispatcher *gateway.Dispatcher) *Server {
	return &Server{dispatcher: dispatcher}
}

// ServeHTTP implements http.Handler — the single MCP endpoint. Correlation
// and origin middleware run in the outer router before this handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || len(body) == 0 {
		// Even a missing body gets a JSON-RPC shaped answer.
		resp := NewParseError(nil)
		w.Header().Set("Content-Type", "application/json")
		data, _ := json.Marshal(resp)
		w.Write(data)
		return
	}

	cid := r.Header.Get(gateway.HeaderCorrelationID)
	if cid == "" {
		cid = r.Header.Get("X-Request-Id")
	}
	cid = gateway.ResolveCorrelationID(cid)

	resp := s.HandleRequest(r.Context(), body, cid, r.Header.Get(gateway.HeaderIdempotencyKey))

	// Notifications produce no response body.
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Write(data)
}

// HandleRequest is the main dispatch for a JSON-RPC 2.0 request.
// It returns a Response for requests, or nil for notifications.
func (s *Server) HandleRequest(ctx context.Context, raw []byte, correlationID, idempotencyKey string) *Response {
	req, errResp := ParseRequest(raw)
	if errResp != nil {
		return errResp
	}

	if req.ID == nil {
		log.Printf("[mcp] notification: %s", req.Method)
		return nil
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized", "ping":
		return s.ack(req.ID)
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req, correlationID, idempotencyKey)
	default:
		resp := NewMethodNotFound(req.ID, req.Method)
		return &resp
	}
}

// ─── initialize ─────────────────────────────────────────────────────────────

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version,omitempty"`
	} `json:"clientInfo"`
}

type initializeResult struct {
	ProtocolVersion string `json:"protocolVersion"`
	ServerInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
	Capabilities struct {
		Tools struct {
			ListChanged bool `json:"listChanged"`
		} `json:"tools"`
	} `json:"capabilities"`
}

func (s *Server) handleInitialize(req Request) *Response {
	var params initializeParams
	if req.Params != nil {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp := errResponse(req.ID, CodeInvalidParams, "Invalid params: invalid initialize params", nil)
			return &resp
		}
	}

	log.Printf("[mcp] initialize from client=%s version=%s protocol=%s",
		params.ClientInfo.Name, params.ClientInfo.Version, params.ProtocolVersion)

	var result initializeResult
	result.ProtocolVersion = MCPProtocolVersion
	result.ServerInfo.Name = ServerName
	result.ServerInfo.Version = ServerVersion

	return s.result(req.ID, result)
}

// ─── tools/list ─────────────────────────────────────────────────────────────

func (s *Server) handleToolsList(req Request) *Response {
	return s.result(req.ID, map[string]any{
		"tools": s.dispatcher.Registry().Descriptors(),
	})
}

// ─── tools/call ─────────────────────────────────────────────────────────────

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolsCallResult struct {
	Content []contentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// errorData is the taxonomy payload carried in the RPC error's data field.
type errorData struct {
	Code          string   `json:"code"`
	CorrelationID string   `json:"correlationId"`
	Details       []string `json:"details,omitempty"`
}

func (s *Server) handleToolsCall(ctx context.Context, req Request, correlationID, idempotencyKey string) *Response {
	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		resp := errResponse(req.ID, CodeInvalidParams, "Invalid params: invalid tools/call params", nil)
		return &resp
	}

	out := s.dispatcher.Call(ctx, gateway.Request{
		Tool:           params.Name,
		Params:         params.Arguments,
		CorrelationID:  correlationID,
		IdempotencyKey: idempotencyKey,
	})

	if !out.OK {
		resp := errResponse(req.ID, rpcCodeFor(out.Failure.Error.Code), out.Failure.Error.Message, errorData{
			Code:          out.Failure.Error.Code,
			CorrelationID: out.Failure.Error.CorrelationID,
			Details:       out.Failure.Error.Details,
		})
		return &resp
	}

	text, err := json.MarshalIndent(out.Payload, "", "  ")
	if err != nil {
		resp := NewInternalError(req.ID, err.Error())
		return &resp
	}
	return s.result(req.ID, toolsCallResult{
		Content: []contentBlock{{Type: "text", Text: string(text)}},
	})
}

// rpcCodeFor maps the gateway taxonomy onto JSON-RPC error codes.
func rpcCodeFor(code string) int {
	switch code {
	case gateway.CodeBadParams, gateway.CodeUnknownTool, gateway.CodeBadJSON:
		return CodeInvalidParams
	default:
		return CodeInternalError
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (s *Server) result(id any, v any) *Response {
	resp, err := NewResult(id, v)
	if err != nil {
		resp = NewInternalError(id, err.Error())
	}
	return &resp
}

func (s *Server) ack(id any) *Response {
	return s.result(id, struct{}{})
}
