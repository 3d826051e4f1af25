package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"asciiarena/pkg/integration"
	"asciiarena/pkg/protocol"
)

// DebugServer exposes an optional, read-only HTTP surface for operators:
// Prometheus metrics, a liveness probe, and a websocket stream of each
// tick's ArenaDelta for spectating a running match without a full client.
// It never accepts gameplay input — the only writers to game state are
// the reliable and unreliable listeners in transport.go.
type DebugServer struct {
	httpServer *http.Server
	upgrader   websocket.Upgrader

	mu         sync.Mutex
	spectators map[*websocket.Conn]struct{}
}

// NewDebugServer builds a DebugServer bound to addr, backed by metrics'
// Prometheus registry.
func NewDebugServer(metrics *Metrics, addr string) *DebugServer {
	d := &DebugServer{
		spectators: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Spectating carries no credentials and mutates nothing, so
			// any origin may open the stream.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/spectate", d.handleSpectate)

	d.httpServer = &http.Server{Addr: addr, Handler: mux}
	return d
}

func (d *DebugServer) handleSpectate(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Debug("server: spectator upgrade failed")
		return
	}

	d.mu.Lock()
	d.spectators[conn] = struct{}{}
	d.mu.Unlock()

	go func() {
		defer func() {
			d.mu.Lock()
			delete(d.spectators, conn)
			d.mu.Unlock()
			conn.Close()
		}()
		// A spectator sends nothing meaningful; this loop only exists to
		// notice the connection closing.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// BroadcastDelta pushes one tick's delta to every connected spectator. Each
// write goes through the debug-stream resilience policy: a couple of quick
// retries absorb a transient write-buffer-full condition without stalling
// the tick, and once enough writes are failing the shared circuit breaker
// trips so a broken stream stops being retried on every subsequent tick.
// A connection whose guarded write still fails is dropped.
func (d *DebugServer) BroadcastDelta(delta protocol.ArenaDelta) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.spectators) == 0 {
		return
	}

	payload, err := json.Marshal(delta)
	if err != nil {
		return
	}

	ctx := context.Background()
	for conn := range d.spectators {
		err := integration.ExecuteDebugStream(ctx, func(context.Context) error {
			return conn.WriteMessage(websocket.TextMessage, payload)
		})
		if err != nil {
			conn.Close()
			delete(d.spectators, conn)
		}
	}
}

// Start begins serving the debug HTTP endpoint in the background.
func (d *DebugServer) Start() {
	go func() {
		if err := d.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Warn("server: debug endpoint stopped")
		}
	}()
}

// Shutdown gracefully stops the debug HTTP endpoint.
func (d *DebugServer) Shutdown(ctx context.Context) error {
	return d.httpServer.Shutdown(ctx)
}

// debugAddr formats a ":port" listen address for the debug server.
func debugAddr(port int) string {
	return fmt.Sprintf("0.0.0.0:%d", port)
}
