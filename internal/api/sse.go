package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/partnergate/partnergate/internal/domain"
	"github.com/partnergate/partnergate/internal/gateway"
	"github.com/partnergate/partnergate/internal/infra/metrics"
)

// ─── SSE Transport ──────────────────────────────────────────────────────────
// GET /sse opens a long-lived event stream. The first event is the manifest
// (mcp.init), then periodic mcp.ping heartbeats. A tool POST carrying
// X-SSE-Connection-Id streams its outcome here as mcp.tool_response or
// mcp.error. Connections idle past the stale threshold are reaped so the
// registry stays bounded.

const (
	sseHeartbeatInterval = 30 * time.Second
	sseStaleTimeout      = 5 * time.Minute
	sseSweepInterval     = time.Minute
)

type sseEvent struct {
	name    string
	payload any
}

type sseConn struct {
	id           string
	events       chan sseEvent
	done         chan struct{}
	lastActivity time.Time
}

// SSEHub is the registry of open SSE connections. It is the only mutable
// shared structure in the process; all map access is mutex-guarded.
type SSEHub struct {
	mu       sync.Mutex
	conns    map[string]*sseConn
	manifest func(host string) domain.Manifest
}

// NewSSEHub creates a hub. manifest builds the init payload per host.
func NewSSEHub(manifest func(host string) domain.Manifest) *SSEHub {
	return &SSEHub{
		conns:    make(map[string]*sseConn),
		manifest: manifest,
	}
}

// Start runs the stale-connection reaper until ctx is cancelled.
func (h *SSEHub) Start(ctx context.Context) {
	ticker := time.NewTicker(sseSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.reapStale(time.Now())
		}
	}
}

func (h *SSEHub) register() *sseConn {
	conn := &sseConn{
		id:           uuid.New().String(),
		events:       make(chan sseEvent, 16),
		done:         make(chan struct{}),
		lastActivity: time.Now(),
	}
	h.mu.Lock()
	h.conns[conn.id] = conn
	h.mu.Unlock()
	metrics.SSEConnections.Inc()
	return conn
}

func (h *SSEHub) unregister(id string) {
	h.mu.Lock()
	_, ok := h.conns[id]
	delete(h.conns, id)
	h.mu.Unlock()
	if ok {
		metrics.SSEConnections.Dec()
	}
}

func (h *SSEHub) reapStale(now time.Time) {
	h.mu.Lock()
	var stale []*sseConn
	for id, conn := range h.conns {
		if now.Sub(conn.lastActivity) > sseStaleTimeout {
			stale = append(stale, conn)
			delete(h.conns, id)
		}
	}
	h.mu.Unlock()

	for _, conn := range stale {
		close(conn.done)
		metrics.SSEConnections.Dec()
		log.Printf("[sse] reaped stale connection %s", conn.id)
	}
}

// ConnectionCount returns the number of open connections.
func (h *SSEHub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// DeliverOutcome streams a dispatch outcome to connID. Returns false when
// no such connection is open, in which case the caller answers inline.
func (h *SSEHub) DeliverOutcome(connID, tool, correlationID string, out gateway.Outcome) bool {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if ok {
		conn.lastActivity = time.Now()
	}
	h.mu.Unlock()
	if !ok {
		return false
	}

	var ev sseEvent
	if out.OK {
		ev = sseEvent{name: "mcp.tool_response", payload: map[string]any{
			"tool":          tool,
			"correlationId": correlationID,
			"result":        out.Payload,
		}}
	} else {
		ev = sseEvent{name: "mcp.error", payload: map[string]any{
			"tool":          tool,
			"correlationId": correlationID,
			"error":         out.Failure.Error,
		}}
	}

	select {
	case conn.events <- ev:
		return true
	default:
		log.Printf("[sse] event buffer full for connection %s", connID)
		return false
	}
}

// handleSSE serves one event-stream connection.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError,
			domain.NewFailure(gateway.CodeInternalError, "Streaming not supported", correlationID(r.Context()), nil))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	conn := s.hub.register()
	defer s.hub.unregister(conn.id)

	cid := correlationID(r.Context())
	log.Printf("[sse] connection established id=%s cid=%s", conn.id, cid)

	// The init payload must precede any other event on the stream. It
	// carries the manifest plus this connection's identifier so the
	// client can route tool POSTs back to the stream.
	manifest := s.manifestFor(r.Host)
	writeSSEEvent(w, "mcp.init", map[string]any{
		"connectionId": conn.id,
		"manifest":     manifest,
	})
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("[sse] connection closed id=%s", conn.id)
			return
		case <-conn.done:
			return
		case <-heartbeat.C:
			writeSSEEvent(w, "mcp.ping", map[string]any{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			flusher.Flush()
			s.hub.touch(conn.id)
		case ev := <-conn.events:
			writeSSEEvent(w, ev.name, ev.payload)
			flusher.Flush()
		}
	}
}

func (h *SSEHub) touch(id string) {
	h.mu.Lock()
	if conn, ok := h.conns[id]; ok {
		conn.lastActivity = time.Now()
	}
	h.mu.Unlock()
}

// writeSSEEvent frames one event: id, event name, JSON data.
func writeSSEEvent(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[sse] marshal %s event: %v", event, err)
		return
	}
	fmt.Fprintf(w, "id: %s\n", uuid.New().String())
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", data)
	metrics.SSEEventsSent.WithLabelValues(event).Inc()
}
