package http

import (
	"context"
	"sync"
	"time"

	"admin-console/internal/admin/domain/model"
	"admin-console/internal/admin/usecase"
	"admin-console/internal/shared/eventbus"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// WebSocketMessage is the frame pushed to clients.
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type wsClient struct {
	id   string
	send chan WebSocketMessage
}

// NotificationHub fans notifications published on the bus out to every
// connected WebSocket client.
type NotificationHub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
	bus     eventbus.EventBusInterface
	sub     eventbus.Subscription
	history *usecase.NotificationHistory
	buffer  int
	log     *zap.Logger
}

// NewNotificationHub subscribes a hub to bus. history may be nil; when set,
// clients can ask for a replay with ?replay=N.
func NewNotificationHub(bus eventbus.EventBusInterface, history *usecase.NotificationHistory, buffer int, log *zap.Logger) *NotificationHub {
	if log == nil {
		log = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 16
	}
	h := &NotificationHub{
		clients: make(map[string]*wsClient),
		bus:     bus,
		history: history,
		buffer:  buffer,
		log:     log.Named("notification_hub"),
	}
	h.sub = bus.Subscribe(eventbus.EventTypeNotification, h.onNotification)
	return h
}

func (h *NotificationHub) onNotification(ctx context.Context, event eventbus.Event) error {
	n, ok := event.Data().(model.Notification)
	if !ok {
		return nil
	}
	h.Broadcast(WebSocketMessage{Type: "notification", Data: n})
	return nil
}

// Broadcast queues msg for every client. Clients whose queue is full miss it.
func (h *NotificationHub) Broadcast(msg WebSocketMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("Dropping notification for slow client", zap.String("clientID", c.id))
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *NotificationHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unsubscribes from the bus and disconnects every client.
func (h *NotificationHub) Close() {
	h.bus.Unsubscribe(h.sub)
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
}

// register queues up to replay stored notifications for a new client and
// adds it to the hub in one step, so no live broadcast can overtake the
// replay.
func (h *NotificationHub) register(replay int) *wsClient {
	c := &wsClient{id: uuid.NewString(), send: make(chan WebSocketMessage, h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if replay > 0 {
		h.replay(c, replay)
	}
	h.clients[c.id] = c
	return c
}

func (h *NotificationHub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
}

// RegisterRoutes registers the WebSocket endpoint at path.
func (h *NotificationHub) RegisterRoutes(router fiber.Router, path string) {
	router.Use(path, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("replay", c.QueryInt("replay", 0))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get(path, websocket.New(h.handleConnection))
}

func (h *NotificationHub) handleConnection(conn *websocket.Conn) {
	replay, _ := conn.Locals("replay").(int)
	client := h.register(replay)
	log := h.log.With(zap.String("clientID", client.id))
	log.Info("WebSocket client connected", zap.Int("replayed", len(client.send)))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(conn, client, log)
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// Clients only send control frames; reads detect disconnects.
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read failed", zap.Error(err))
			}
			break
		}
	}

	h.unregister(client)
	<-done
	log.Info("WebSocket client disconnected")
}

// replay must be called with h.mu held. limit is capped at the send buffer
// so the newest notifications win.
func (h *NotificationHub) replay(client *wsClient, limit int) {
	if h.history == nil {
		return
	}
	if limit > cap(client.send) {
		limit = cap(client.send)
	}
	notes, err := h.history.Recent(context.Background(), limit)
	if err != nil {
		h.log.Warn("Failed to load notification history", zap.String("clientID", client.id), zap.Error(err))
		return
	}
	for _, n := range notes {
		select {
		case client.send <- WebSocketMessage{Type: "notification", Data: n}:
		default:
			return
		}
	}
}

func (h *NotificationHub) writePump(conn *websocket.Conn, client *wsClient, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn("WebSocket write failed", zap.Error(err))
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
