package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/driftwatch/driftwatch/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const maxMessageSize = 512

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// host filters broadcasts; empty means all hosts.
	host   string
	hostMu sync.RWMutex
}

type IncomingMessage struct {
	Type string `json:"type"`
	Host string `json:"host,omitempty"`
}

func NewClient(hub *Hub, conn *websocket.Conn, host string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.settings.clientBuffer),
		host: host,
	}
}

// Subscribed reports whether a broadcast for host should reach this
// client.
func (c *Client) Subscribed(host string) bool {
	c.hostMu.RLock()
	defer c.hostMu.RUnlock()
	return c.host == "" || c.host == host
}

func (c *Client) setHost(host string) {
	c.hostMu.Lock()
	defer c.hostMu.Unlock()
	c.host = host
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	pongWait := c.hub.settings.pongTimeout
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.handleMessage(&msg)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.settings.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	writeWait := c.hub.settings.writeTimeout

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to current websocket frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *IncomingMessage) {
	switch msg.Type {
	case "subscribe":
		if msg.Host != "" {
			c.setHost(msg.Host)
			logger.Infof("Client subscribed to host: %s", msg.Host)
			c.sendConfirmation("subscribed", msg.Host)
		}
	case "unsubscribe":
		c.hostMu.RLock()
		oldHost := c.host
		c.hostMu.RUnlock()
		c.setHost("")
		logger.Info("Client unsubscribed from host")
		c.sendConfirmation("unsubscribed", oldHost)
	}
}

func (c *Client) sendConfirmation(action, host string) {
	confirmation := map[string]interface{}{
		"type":      "subscription_update",
		"action":    action,
		"host":      host,
		"timestamp": time.Now(),
	}
	data, err := json.Marshal(confirmation)
	if err != nil {
		logger.Errorf("Failed to marshal confirmation: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		logger.Warn("Client send channel full, dropping confirmation")
	}
}

func ServeWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("WebSocket upgrade failed: %v", err)
			return
		}

		host := c.Query("host")
		client := NewClient(hub, conn, host)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
