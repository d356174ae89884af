// Package ws implements the WebSocket adapter that pushes order updates to a
// caterer's connected dashboards.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 5 * time.Second

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// TenantResolver returns the caterer id of an authenticated request, or "".
type TenantResolver func(r *http.Request) string

// conn wraps a single WebSocket connection.
type conn struct {
	ws       *websocket.Conn
	cancel   context.CancelFunc
	tenantID string
}

// Hub tracks connections per caterer. A message is only ever written to
// connections of the tenant it was addressed to.
type Hub struct {
	mu       sync.RWMutex
	conns    map[*conn]struct{}
	origins  []string
	tenantOf TenantResolver
}

// NewHub creates a hub. allowedOrigin restricts the Origin header (its host
// is used as the pattern); empty allows any origin.
func NewHub(allowedOrigin string, tenantOf TenantResolver) *Hub {
	h := &Hub{conns: make(map[*conn]struct{}), tenantOf: tenantOf}
	if allowedOrigin != "" && allowedOrigin != "*" {
		if u, err := url.Parse(allowedOrigin); err == nil && u.Host != "" {
			h.origins = []string{u.Host}
		}
	}
	return h
}

// HandleWS upgrades an authenticated request to a WebSocket bound to the caller's tenant.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	var tenantID string
	if h.tenantOf != nil {
		tenantID = h.tenantOf(r)
	}
	if tenantID == "" {
		http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
		return
	}

	opts := &websocket.AcceptOptions{OriginPatterns: h.origins}
	if len(h.origins) == 0 {
		opts.InsecureSkipVerify = true
	}
	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	// The read loop outlives the handler, so it must not use r.Context().
	ctx, cancel := context.WithCancel(context.Background())
	c := &conn{ws: ws, cancel: cancel, tenantID: tenantID}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr, "tenant_id", tenantID)

	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()
}

// BroadcastToTenant sends msg to every connection of tenantID.
func (h *Hub) BroadcastToTenant(ctx context.Context, tenantID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		if c.tenantID == tenantID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.ws.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			slog.Debug("websocket write failed", "tenant_id", tenantID, "error", err)
			h.remove(c)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		c.cancel()
		delete(h.conns, c)
	}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected", "tenant_id", c.tenantID)
	}
}
