package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/thereceipt/label-engine/internal/notify"
	"github.com/thereceipt/label-engine/internal/printer"
)

// WebSocket message types
const (
	EventNotification = "notification"
	EventJob          = "job"
	EventDispatch     = "dispatch"
	EventResponse     = "response"
	EventError        = "error"
)

// WSMessage is a WebSocket message.
type WSMessage struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// Hub tracks connected clients and broadcasts to them. It implements
// notify.Notifier.
type Hub struct {
	upgrader  websocket.Upgrader
	clients   map[*wsClient]struct{}
	mu        sync.RWMutex
	logger    *slog.Logger
	onMessage func(c *wsClient, msg WSMessage)
}

type wsClient struct {
	conn *websocket.Conn
	send chan WSMessage
	hub  *Hub
}

// NewHub creates a hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
		logger:  logger,
	}
}

// Notify broadcasts a notification.
func (h *Hub) Notify(n notify.Notification) {
	h.Broadcast(WSMessage{
		Event: EventNotification,
		Data: map[string]any{
			"level":       n.Level,
			"message":     n.Message,
			"description": n.Description,
		},
	})
}

// BroadcastJob pushes a job state change.
func (h *Hub) BroadcastJob(job printer.Job) {
	h.Broadcast(WSMessage{
		Event: EventJob,
		Data: map[string]any{
			"id":         job.ID,
			"printer_id": job.PrinterID,
			"status":     job.Status,
			"retries":    job.Retries,
			"error":      job.Error,
		},
	})
}

// Broadcast sends msg to every client. Clients with a full buffer miss it.
func (h *Hub) Broadcast(msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := &wsClient{conn: conn, send: make(chan WSMessage, 256), hub: h}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("websocket client connected", slog.String("remote", conn.RemoteAddr().String()))

	go client.writePump()
	go client.readPump()
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.hub.logger.Warn("websocket write failed", slog.Any("error", err))
			return
		}
	}
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
		c.hub.logger.Info("websocket client disconnected")
	}()

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed", slog.Any("error", err))
			}
			return
		}
		if c.hub.onMessage != nil {
			c.hub.onMessage(c, msg)
		} else {
			c.sendError("unknown event: " + msg.Event)
		}
	}
}

func (c *wsClient) reply(event string, data map[string]any) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}

func (c *wsClient) sendResponse(data map[string]any) { c.reply(EventResponse, data) }

func (c *wsClient) sendError(message string) {
	c.reply(EventError, map[string]any{"error": message})
}
