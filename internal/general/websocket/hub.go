package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"ride-share/internal/general/contracts"
	"ride-share/internal/general/jwt"
	"ride-share/internal/general/logger"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	pingInterval     = 30 * time.Second
	readIdleTimeout  = 60 * time.Second
	defaultAuthWait  = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub keeps authenticated notification subscribers keyed by user id and pushes
// deliveries to every open socket of the recipient.
type Hub struct {
	logger   *logger.Logger
	jwtMgr   *jwt.Manager
	authWait time.Duration

	mu    sync.RWMutex
	conns map[string]map[*client]struct{}
}

// client serializes writes to one connection; gorilla allows a single writer.
type client struct {
	userID string
	conn   *websocket.Conn
	mu     sync.Mutex
}

// NewHub creates a hub that authenticates subscribers with jwtMgr.
func NewHub(logger *logger.Logger, jwtMgr *jwt.Manager) *Hub {
	return &Hub{
		logger:   logger,
		jwtMgr:   jwtMgr,
		authWait: defaultAuthWait,
		conns:    make(map[string]map[*client]struct{}),
	}
}

// Connections reports how many sockets are currently registered.
func (hub *Hub) Connections() int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	n := 0
	for _, set := range hub.conns {
		n += len(set)
	}
	return n
}

func (hub *Hub) register(c *client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	set, ok := hub.conns[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		hub.conns[c.userID] = set
	}
	set[c] = struct{}{}
}

func (hub *Hub) unregister(c *client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	set := hub.conns[c.userID]
	delete(set, c)
	if len(set) == 0 {
		delete(hub.conns, c.userID)
	}
}

func (hub *Hub) clientsOf(userID string) []*client {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	out := make([]*client, 0, len(hub.conns[userID]))
	for c := range hub.conns[userID] {
		out = append(out, c)
	}
	return out
}

// pushFrame is the envelope written to subscribers.
type pushFrame struct {
	Type string                        `json:"type"`
	Data contracts.NotificationMessage `json:"data"`
}

// Deliver pushes msg to every socket the recipient has open. Offline recipients
// are skipped; a socket that fails to accept the write is dropped.
func (hub *Hub) Deliver(ctx context.Context, recipientID string, msg contracts.NotificationMessage) error {
	clients := hub.clientsOf(recipientID)
	if len(clients) == 0 {
		hub.logger.Debug(ctx, "ws_recipient_offline", "Recipient has no open sockets",
			map[string]any{"recipient_id": recipientID, "kind": msg.Kind})
		return nil
	}

	payload, err := json.Marshal(pushFrame{Type: "notification", Data: msg})
	if err != nil {
		return err
	}
	for _, c := range clients {
		if err := c.write(websocket.TextMessage, payload); err != nil {
			hub.logger.Error(ctx, "ws_push_failed", "Failed to push notification, dropping socket", err,
				map[string]any{"recipient_id": recipientID})
			hub.unregister(c)
			_ = c.conn.Close()
		}
	}
	return nil
}

func (c *client) write(mt int, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(mt, payload)
}

func (c *client) writeJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, payload)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

func (c *client) close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
}

// bearer accepts either "Bearer <token>" or a bare token.
func bearer(s string) string {
	s = strings.TrimSpace(s)
	if scheme, tok, ok := strings.Cut(s, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(tok)
	}
	return s
}
