package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"optiflow/internal/domain/market"
	"optiflow/internal/metrics"
	"optiflow/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsSendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Dashboard clients connect from arbitrary origins
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans the per-cycle market state out to connected websocket clients.
// Slow clients are dropped rather than allowed to block a broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	log     *logger.Logger
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty websocket hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		log:     logger.Get().With("component", "ws_hub"),
	}
}

// BroadcastState pushes the current entries to every connected client
func (h *Hub) BroadcastState(entries []*market.Entry) {
	payload, err := json.Marshal(map[string]interface{}{
		"type": "state",
		"data": entries,
	})
	if err != nil {
		h.log.Errorw("state broadcast marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Buffer full, the writer goroutine will shut the client down
			go h.remove(client)
		}
	}
}

// HandleWS upgrades the request and registers the client with the hub
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	metrics.WebSocketConnections.Inc()

	go h.writePump(client)
	go h.readPump(client)
}

func (h *Hub) remove(client *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	h.mu.Unlock()

	if ok {
		metrics.WebSocketConnections.Dec()
		close(client.send)
		_ = client.conn.Close()
	}
}

// readPump drains inbound frames so control messages are processed and
// disconnects are noticed
func (h *Hub) readPump(client *wsClient) {
	defer h.remove(client)

	client.conn.SetReadLimit(1024)
	_ = client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(client *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(client)
	}()

	for {
		select {
		case payload, ok := <-client.send:
			if !ok {
				return
			}
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
