//go:build !prod

package hcc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// HotReloadPath is the websocket endpoint dev clients connect to
const HotReloadPath = "/hcc/ws"

// Notification is sent to hot reload clients after each regeneration
type Notification struct {
	Type  string `json:"type"`
	Path  string `json:"path,omitempty"`
	Files int    `json:"files"`
	Apis  int    `json:"apis"`
	Error string `json:"error,omitempty"`
}

// HotReload notifies connected dev servers whenever the entry is regenerated
type HotReload struct {
	engine   *Engine
	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHotReload(engine *Engine) *HotReload {
	return &HotReload{
		engine: engine,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handler serves the websocket endpoint
func (hr *HotReload) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(HotReloadPath, hr.serveWS)
	return mux
}

// Start listens on the configured hot reload port
func (hr *HotReload) Start() error {
	addr := fmt.Sprintf("localhost:%d", hr.engine.Config.HotReloadPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	hr.listener = ln
	hr.server = &http.Server{Handler: hr.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := hr.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			hr.engine.Logger.Error("Hot reload server stopped", "error", err)
		}
	}()
	hr.engine.Logger.Info("Hot reload server listening", "addr", ln.Addr().String()+HotReloadPath)
	return nil
}

// Stop closes every client and shuts the server down
func (hr *HotReload) Stop(ctx context.Context) error {
	hr.mu.Lock()
	for conn := range hr.clients {
		conn.Close()
		delete(hr.clients, conn)
	}
	hr.mu.Unlock()

	if hr.server == nil {
		return nil
	}
	return hr.server.Shutdown(ctx)
}

func (hr *HotReload) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := hr.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hr.engine.Logger.Warn("Failed to upgrade hot reload connection", "error", err)
		return
	}
	hr.mu.Lock()
	hr.clients[conn] = struct{}{}
	hr.mu.Unlock()
	hr.engine.Logger.Debug("Hot reload client connected", "remote", r.RemoteAddr)

	// drain until the client goes away
	go func() {
		defer hr.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (hr *HotReload) remove(conn *websocket.Conn) {
	hr.mu.Lock()
	delete(hr.clients, conn)
	hr.mu.Unlock()
	conn.Close()
}

// Clients returns the number of connected clients
func (hr *HotReload) Clients() int {
	if hr == nil {
		return 0
	}
	hr.mu.Lock()
	defer hr.mu.Unlock()
	return len(hr.clients)
}

// Broadcast sends n to every connected client. It is a no-op on a nil HotReload.
func (hr *HotReload) Broadcast(n Notification) {
	if hr == nil {
		return
	}
	hr.mu.Lock()
	defer hr.mu.Unlock()
	for conn := range hr.clients {
		conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := conn.WriteJSON(n); err != nil {
			hr.engine.Logger.Debug("Dropping hot reload client", "error", err)
			conn.Close()
			delete(hr.clients, conn)
		}
	}
}
