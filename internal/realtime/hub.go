package realtime

import (
	"context"
	"net/http"
	"time"

	"sos-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

type directMessage struct {
	userID string
	data   []byte
}

// Hub tracks connected websocket clients and routes payloads to the global
// scope or to a single user's connections.
type Hub struct {
	logger *zap.SugaredLogger

	clients     map[*Client]bool
	userClients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan directMessage
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		logger:      logger,
		clients:     make(map[*Client]bool),
		userClients: make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan []byte, 256),
		direct:      make(chan directMessage, 256),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			if h.userClients[client.userID] == nil {
				h.userClients[client.userID] = make(map[*Client]bool)
			}
			h.userClients[client.userID][client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				delete(h.userClients[client.userID], client)
				if len(h.userClients[client.userID]) == 0 {
					delete(h.userClients, client.userID)
				}
				close(client.send)
			}

		case data := <-h.broadcast:
			for client := range h.clients {
				client.enqueue(data)
			}

		case msg := <-h.direct:
			for client := range h.userClients[msg.userID] {
				client.enqueue(msg.data)
			}
		}
	}
}

func (h *Hub) Broadcast(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("Realtime broadcast queue full, dropping event")
	}
}

func (h *Hub) SendToUser(userID string, payload []byte) {
	select {
	case h.direct <- directMessage{userID: userID, data: payload}:
	default:
		h.logger.Warnf("Realtime direct queue full, dropping event for user %s", userID)
	}
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

// enqueue drops the payload if the client's buffer is full; a slow consumer
// must not stall the hub loop.
func (c *Client) enqueue(payload []byte) {
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// Clients only listen on this socket; inbound frames are drained to
		// keep control-frame processing alive.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and joins the client to its private scope.
// The handshake authenticates with the same JWT the HTTP routes use, passed
// as a query parameter.
func ServeWS(hub *Hub, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := middleware.ParseWSToken(c.Query("token"), jwtSecret)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.logger.Warnf("Websocket upgrade failed: %v", err)
			return
		}

		client := &Client{
			hub:    hub,
			conn:   conn,
			userID: userID,
			send:   make(chan []byte, sendBufferSize),
		}
		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}
