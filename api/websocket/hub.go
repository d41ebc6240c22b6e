package websocket

import (
	"sync"
	"time"

	"github.com/driftwatch/driftwatch/internal/logger"
	"github.com/driftwatch/driftwatch/pkg/config"
)

const (
	defaultBroadcastBuffer = 256
	defaultClientBuffer    = 256
	defaultWriteTimeout    = 10 * time.Second
	defaultPongTimeout     = 60 * time.Second
)

// settings carries the tunables shared by every client connection.
type settings struct {
	writeTimeout time.Duration
	pongTimeout  time.Duration
	pingInterval time.Duration
	clientBuffer int
}

func newSettings(cfg *config.WebSocketConfig) *settings {
	s := &settings{
		writeTimeout: defaultWriteTimeout,
		pongTimeout:  defaultPongTimeout,
		clientBuffer: defaultClientBuffer,
	}
	if cfg != nil {
		if cfg.WriteTimeout > 0 {
			s.writeTimeout = cfg.WriteTimeout
		}
		if cfg.PongTimeout > 0 {
			s.pongTimeout = cfg.PongTimeout
		}
		if cfg.ClientBuffer > 0 {
			s.clientBuffer = cfg.ClientBuffer
		}
	}
	if cfg != nil && cfg.PingInterval > 0 {
		s.pingInterval = cfg.PingInterval
	} else {
		s.pingInterval = (s.pongTimeout * 9) / 10
	}
	return s
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	settings   *settings
}

func NewHub(cfg *config.WebSocketConfig) *Hub {
	broadcastBuffer := defaultBroadcastBuffer
	if cfg != nil && cfg.BroadcastBuffer > 0 {
		broadcastBuffer = cfg.BroadcastBuffer
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		settings:   newSettings(cfg),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Infof("WebSocket client connected (total: %d)", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			logger.Infof("WebSocket client disconnected (total: %d)", h.ClientCount())

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.mu.RUnlock()
					h.mu.Lock()
					delete(h.clients, client)
					close(client.send)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a message to every connected client.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

// BroadcastToHost sends a message only to clients subscribed to the host.
// Clients with no subscription receive everything.
func (h *Hub) BroadcastToHost(host string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.Subscribed(host) {
			select {
			case client.send <- message:
			default:
			}
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}
