package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/partnergate/partnergate/internal/gateway"
	"github.com/partnergate/partnergate/internal/tools"
)

func newTestMCP(t *testing.T) *Server {
	t.Helper()
	registry := tools.NewRegistry()
	client := &tools.Client{DemoMode: true}
	dispatcher := gateway.NewDispatcher(registry, client, gateway.NewIdempotencyResolver(nil))
	return NewServer(dispatcher)
}

func handle(t *testing.T, s *Server, raw string) *Response {
	t.Helper()
	return s.HandleRequest(context.Background(), []byte(raw), "cid-test", "")
}

// ─── JSON-RPC Framing ───────────────────────────────────────────────────────

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode int
	}{
		{"malformed", `{garbage`, CodeParseError},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"ping"}`, CodeInvalidRequest},
		{"missing method", `{"jsonrpc":"2.0","id":1}`, CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp := ParseRequest([]byte(tt.raw))
			if resp == nil {
				t.Fatal("expected an error response")
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", resp.Error.Code, tt.wantCode)
			}
		})
	}

	req, resp := ParseRequest([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	if resp != nil {
		t.Fatalf("valid request rejected: %+v", resp.Error)
	}
	if req.Method != "tools/list" {
		t.Errorf("method = %q", req.Method)
	}
}

func TestHandleRequest_Notification(t *testing.T) {
	s := newTestMCP(t)
	if resp := handle(t, s, `{"jsonrpc":"2.0","method":"notifications/initialized"}`); resp != nil {
		t.Errorf("notification produced a response: %+v", resp)
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := newTestMCP(t)
	resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`)
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Errorf("response = %+v", resp)
	}
}

// ─── initialize ─────────────────────────────────────────────────────────────

func TestInitialize(t *testing.T) {
	s := newTestMCP(t)
	resp := handle(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize",
		"params":{"protocolVersion":"2025-03-26","clientInfo":{"name":"test-client"}}}`)
	if resp.Error != nil {
		t.Fatalf("error = %+v", resp.Error)
	}

	var result initializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.ProtocolVersion != MCPProtocolVersion {
		t.Errorf("protocolVersion = %q", result.ProtocolVersion)
	}
	if result.ServerInfo.Name != ServerName {
		t.Errorf("server name = %q", result.ServerInfo.Name)
	}
}

// ─── tools/list ─────────────────────────────────────────────────────────────

func TestToolsList(t *testing.T) {
	s := newTestMCP(t)
	resp := handle(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	if resp.Error != nil {
		t.Fatalf("error = %+v", resp.Error)
	}

	var result struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(result.Tools) != 5 {
		t.Errorf("len(tools) = %d, want 5", len(result.Tools))
	}
}

// ─── tools/call ─────────────────────────────────────────────────────────────

func TestToolsCall_Success(t *testing.T) {
	s := newTestMCP(t)
	resp := handle(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/call",
		"params":{"name":"ping","arguments":{"name":"Ada"}}}`)
	if resp.Error != nil {
		t.Fatalf("error = %+v", resp.Error)
	}

	var result toolsCallResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("content = %+v", result.Content)
	}
	if !strings.Contains(result.Content[0].Text, "Hello, Ada!") {
		t.Errorf("text = %q", result.Content[0].Text)
	}
}

func TestToolsCall_BadParams(t *testing.T) {
	s := newTestMCP(t)
	resp := handle(t, s, `{"jsonrpc":"2.0","id":4,"method":"tools/call",
		"params":{"name":"shopify.searchProducts","arguments":{}}}`)
	if resp.Error == nil {
		t.Fatal("expected an error response")
	}
	if resp.Error.Code != CodeInvalidParams {
		t.Errorf("code = %d, want %d", resp.Error.Code, CodeInvalidParams)
	}

	var data errorData
	if err := json.Unmarshal(resp.Error.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.Code != gateway.CodeBadParams {
		t.Errorf("taxonomy code = %q", data.Code)
	}
	if data.CorrelationID != "cid-test" {
		t.Errorf("correlationId = %q", data.CorrelationID)
	}
	if len(data.Details) == 0 {
		t.Error("details missing")
	}
}

func TestToolsCall_UnknownTool(t *testing.T) {
	s := newTestMCP(t)
	resp := handle(t, s, `{"jsonrpc":"2.0","id":5,"method":"tools/call",
		"params":{"name":"bogus","arguments":{}}}`)
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Fatalf("response = %+v", resp)
	}

	var data errorData
	json.Unmarshal(resp.Error.Data, &data)
	if data.Code != gateway.CodeUnknownTool {
		t.Errorf("taxonomy code = %q", data.Code)
	}
}

// ─── HTTP Transport ─────────────────────────────────────────────────────────

func TestServeHTTP(t *testing.T) {
	s := newTestMCP(t)

	req := httptest.NewRequest("POST", "/mcp",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.JSONRPC != JSONRPCVersion || resp.Error != nil {
		t.Errorf("response = %+v", resp)
	}
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	s := newTestMCP(t)
	req := httptest.NewRequest("GET", "/mcp", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestServeHTTP_EmptyBodyIsParseError(t *testing.T) {
	s := newTestMCP(t)
	req := httptest.NewRequest("POST", "/mcp", strings.NewReader(""))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != CodeParseError {
		t.Errorf("response = %+v, want parse error", resp)
	}
}

func TestServeHTTP_NotificationIsAccepted(t *testing.T) {
	s := newTestMCP(t)
	req := httptest.NewRequest("POST", "/mcp",
		strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", w.Code)
	}
}
