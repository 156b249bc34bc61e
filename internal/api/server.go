// Package api provides the HTTP server for partnergate.
// It exposes the tool endpoints, the discovery manifest, health probes, the
// SSE transport, and the MCP Streamable HTTP endpoint.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/partnergate/partnergate/internal/domain"
	"github.com/partnergate/partnergate/internal/gateway"
	"github.com/partnergate/partnergate/internal/infra/metrics"
)

// Pinger is the readiness dependency: the idempotency store's Ping.
type Pinger interface {
	Ping() error
}

// Server is the partnergate HTTP API server.
type Server struct {
	dispatcher *gateway.Dispatcher
	guard      *gateway.OriginGuard
	hub        *SSEHub
	store      Pinger // nil if no store configured
	mcpHandler http.Handler

	demoMode  bool
	serverURL string // overrides the manifest homepage when set
}

// NewServer creates a new API server around the shared dispatcher.
func NewServer(dispatcher *gateway.Dispatcher, guard *gateway.OriginGuard) *Server {
	s := &Server{dispatcher: dispatcher, guard: guard}
	s.hub = NewSSEHub(s.manifestFor)
	return s
}

// SetStore attaches the idempotency store for the readiness probe.
func (s *Server) SetStore(p Pinger) { s.store = p }

// SetDemoMode toggles the demo-mode flag reported by /healthz.
func (s *Server) SetDemoMode(on bool) { s.demoMode = on }

// SetServerURL fixes the manifest homepage (e.g. behind a proxy).
func (s *Server) SetServerURL(u string) { s.serverURL = u }

// SetMCPHandler mounts the MCP Streamable HTTP transport at /mcp.
func (s *Server) SetMCPHandler(h http.Handler) { s.mcpHandler = h }

// Hub returns the SSE hub (for the daemon to start the reaper).
func (s *Server) Hub() *SSEHub { return s.hub }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.correlationMiddleware)
	r.Use(s.corsMiddleware)

	// SSE stays outside the timeout group; connections are long-lived.
	r.Get("/sse", s.handleSSE)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(gateway.DefaultCallTimeout))

		r.Get("/", s.handleDiscovery)
		r.Post("/", s.handleDiscovery)
		r.Get("/healthz", s.handleHealth)
		r.Get("/healthz/ready", s.handleReady)
		r.Get("/tools", s.handleListTools)
		r.Get("/mcp-manifest.json", s.handleManifest)
		r.Post("/tools/{toolName}", s.handleToolCall)

		r.Handle("/metrics", promhttp.Handler())

		if s.mcpHandler != nil {
			r.Handle("/mcp", s.mcpHandler)
		}

		// Browsers and connector clients probe for these; answer 204
		// instead of a NOT_FOUND envelope.
		for _, p := range []string{
			"/favicon.ico", "/favicon.png", "/favicon.svg",
			"/apple-touch-icon.png", "/apple-touch-icon-precomposed.png",
		} {
			r.Get(p, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		failure := domain.NewFailure(gateway.CodeNotFound, "Path not found: "+r.URL.Path, correlationID(r.Context()), nil)
		writeJSON(w, http.StatusNotFound, failure)
	})

	return r
}

// ─── Middleware ─────────────────────────────────────────────────────────────

type ctxKey int

const correlationKey ctxKey = iota

func correlationID(ctx context.Context) string {
	if cid, ok := ctx.Value(correlationKey).(string); ok {
		return cid
	}
	return ""
}

// correlationMiddleware resolves the per-request correlation ID and echoes
// it on every response, success or failure.
func (s *Server) correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := gateway.ResolveCorrelationID(r.Header.Get(gateway.HeaderCorrelationID))
		w.Header().Set(gateway.HeaderCorrelationID, cid)
		// Downstream handlers re-read the request header; it must carry
		// the same resolved ID the response header echoes.
		r.Header.Set(gateway.HeaderCorrelationID, cid)
		ctx := context.WithValue(r.Context(), correlationKey, cid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// corsMiddleware enforces the origin allow-list before any tool logic runs
// and answers preflight for allowed origins.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if !s.guard.IsAllowed(origin) {
			metrics.OriginsBlocked.Inc()
			status, failure := gateway.Fail(domain.ErrOriginBlocked, correlationID(r.Context()))
			writeJSON(w, status, failure)
			return
		}

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Expose-Headers", gateway.HeaderCorrelationID)
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, "+gateway.HeaderCorrelationID+", "+gateway.HeaderIdempotencyKey+", "+gateway.HeaderSSEConnectionID)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ─── Handlers ───────────────────────────────────────────────────────────────

func (s *Server) manifestFor(host string) domain.Manifest {
	homepage := s.serverURL
	if homepage == "" {
		if host != "" {
			homepage = "https://" + host
		} else {
			homepage = "https://localhost"
		}
	}
	return s.dispatcher.Registry().BuildManifest(homepage)
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	m := s.manifestFor(r.Host)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]any{
		"mcp":         true,
		"name":        m.Name,
		"description": m.Description,
		"manifest":    "/mcp-manifest.json",
		"sse":         "/sse",
		"homepage":    m.Homepage,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"demoMode":  s.demoMode,
	})
}

// handleReady fails closed: a configured but unreachable store means not
// ready.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"ready": false,
				"error": "idempotency store unreachable",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "ready": true})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tools": s.dispatcher.Registry().Descriptors(),
	})
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, s.manifestFor(r.Host))
}

func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	cid := correlationID(r.Context())
	toolName := chi.URLParam(r, "toolName")

	body, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		status, failure := gateway.Fail(domain.ErrBadJSON, cid)
		writeJSON(w, status, failure)
		return
	}

	var params json.RawMessage
	if len(body) > 0 {
		var envelope struct {
			Params json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			status, failure := gateway.Fail(domain.ErrBadJSON, cid)
			writeJSON(w, status, failure)
			return
		}
		params = envelope.Params
	}

	out := s.dispatcher.Call(r.Context(), gateway.Request{
		Tool:           toolName,
		Params:         params,
		CorrelationID:  cid,
		IdempotencyKey: r.Header.Get(gateway.HeaderIdempotencyKey),
	})

	// Out-of-band delivery: stream the outcome to an open SSE connection
	// and acknowledge the POST with 202.
	if connID := r.Header.Get(gateway.HeaderSSEConnectionID); connID != "" {
		if s.hub.DeliverOutcome(connID, toolName, cid, out) {
			writeJSON(w, http.StatusAccepted, map[string]any{
				"ok":      true,
				"message": "Response streamed via SSE",
			})
			return
		}
	}

	if out.OK {
		writeJSON(w, out.Status, out.Payload)
		return
	}
	writeJSON(w, out.Status, out.Failure)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
