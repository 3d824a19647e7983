package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/campus-assoc/backend/internal/events"
	"github.com/campus-assoc/backend/internal/middleware"
	"github.com/campus-assoc/backend/internal/rbac"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// wsConn is the part of a websocket connection the hub writes to.
type wsConn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// WSHub relays critical audit events to connected auditors.
type WSHub struct {
	stream      string
	subscriber  events.Subscriber
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[string][]wsConn
}

func NewWSHub(stream string, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		stream:      stream,
		subscriber:  subscriber,
		log:         log,
		connections: make(map[string][]wsConn),
	}
}

// Start tails the audit stream until ctx is cancelled.
func (h *WSHub) Start(ctx context.Context) {
	if err := h.subscriber.Subscribe(ctx, h.stream, h.broadcast); err != nil {
		h.log.Error("audit stream subscription failed", zap.String("stream", h.stream), zap.Error(err))
	}
}

// RegisterMetrics exposes the number of open auditor connections.
func (h *WSHub) RegisterMetrics(reg prometheus.Registerer) {
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "assoc_ws_audit_connections",
		Help: "Open websocket connections receiving critical audit events.",
	}, func() float64 { return float64(h.Connected()) })
}

// broadcast writes outside the lock; a connection whose write fails or times out
// is dropped.
func (h *WSHub) broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	type target struct {
		userID string
		conn   wsConn
	}
	h.mu.RLock()
	var targets []target
	for userID, conns := range h.connections {
		for _, conn := range conns {
			targets = append(targets, target{userID, conn})
		}
	}
	h.mu.RUnlock()

	for _, t := range targets {
		_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("dropping audit websocket", zap.String("user_id", t.userID), zap.Error(err))
			h.remove(t.userID, t.conn)
		}
	}
}

// Connected returns the number of open connections.
func (h *WSHub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.connections {
		n += len(conns)
	}
	return n
}

func (h *WSHub) add(userID string, conn wsConn) {
	h.mu.Lock()
	h.connections[userID] = append(h.connections[userID], conn)
	h.mu.Unlock()
}

// remove forgets and closes conn. It is a no-op for a connection already removed.
func (h *WSHub) remove(userID string, conn wsConn) {
	h.mu.Lock()
	conns := h.connections[userID]
	found := false
	for i, c := range conns {
		if c == conn {
			h.connections[userID] = append(conns[:i:i], conns[i+1:]...)
			found = true
			break
		}
	}
	if len(h.connections[userID]) == 0 {
		delete(h.connections, userID)
	}
	h.mu.Unlock()
	if found {
		_ = conn.Close()
	}
}

// WSUpgradeMiddleware runs after AuthMiddleware: it rejects plain HTTP and
// callers without audit access, and hands the user id to the connection.
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if !rbac.AnyHasPermission(middleware.GetRoles(c), rbac.PermReadAudit) {
			return fiber.ErrForbidden
		}
		c.Locals("ws_user", middleware.GetUserID(c))
		return c.Next()
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	userID, _ := conn.Locals("ws_user").(string)

	h.add(userID, conn)
	defer h.remove(userID, conn)

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
