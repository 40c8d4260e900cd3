// Package stream serves the execution-event websocket feed: every
// successfully executed signal is broadcast to connected orchestrators
// and dashboards.
package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mollyslab/slabgate/internal/pkg/logger"
	"github.com/mollyslab/slabgate/internal/service"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway key was already checked by the auth middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans execution events out to websocket subscribers. A slow
// subscriber gets dropped rather than backpressuring execution.
type Hub struct {
	mu    sync.RWMutex
	conns map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan service.ExecutionEvent
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*subscriber]struct{})}
}

// Publish implements service.EventPublisher. Never blocks.
func (h *Hub) Publish(ev service.ExecutionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.conns {
		select {
		case sub.send <- ev:
		default:
			// Buffer full; the writer goroutine will notice on close.
			logger.Component("stream").Warn("dropping event for slow subscriber")
		}
	}
}

// ServeHTTP upgrades the request and streams events until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Component("stream").Error("upgrade failed", "error", err)
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan service.ExecutionEvent, sendBufferSize),
	}

	h.mu.Lock()
	h.conns[sub] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(sub)
	h.readLoop(sub)
}

// Subscribers returns the current connection count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) writeLoop(sub *subscriber) {
	for ev := range sub.send {
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteJSON(ev); err != nil {
			logger.Component("stream").Debug("write failed", "error", err)
			sub.conn.Close()
			return
		}
	}
}

// readLoop discards inbound frames; its job is to detect disconnects.
func (h *Hub) readLoop(sub *subscriber) {
	defer h.drop(sub)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(sub *subscriber) {
	h.mu.Lock()
	if _, ok := h.conns[sub]; ok {
		delete(h.conns, sub)
		close(sub.send)
	}
	h.mu.Unlock()
	sub.conn.Close()
}
