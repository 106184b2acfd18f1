package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type authFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// Connect upgrades the request and expects {"type":"auth","token":"Bearer ..."}
// as the first frame. Authenticated sockets receive notification pushes until
// either side closes.
func (hub *Hub) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error(ctx, "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	defer conn.Close()

	c := &client{conn: conn}
	conn.SetReadLimit(4 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(hub.authWait))

	mt, first, err := conn.ReadMessage()
	if err != nil {
		hub.logger.Error(ctx, "ws_auth_read_failed", "Client did not authenticate in time", err, nil)
		_ = c.writeJSON(map[string]any{"type": "auth_error", "error": "authentication timeout"})
		return
	}
	var auth authFrame
	if mt != websocket.TextMessage || json.Unmarshal(first, &auth) != nil || auth.Type != "auth" {
		_ = c.writeJSON(map[string]any{"type": "auth_error", "error": "first frame must be an auth message"})
		c.close(websocket.ClosePolicyViolation, "auth required")
		return
	}
	_, claims, err := hub.jwtMgr.ParseAndValidate(bearer(auth.Token))
	if err != nil {
		hub.logger.Error(ctx, "ws_auth_failed", "Invalid auth token", err, nil)
		_ = c.writeJSON(map[string]any{"type": "auth_error", "error": "authentication failed: invalid token"})
		c.close(websocket.ClosePolicyViolation, "invalid token")
		return
	}

	c.userID = claims.Subject
	hub.register(c)
	defer hub.unregister(c)

	if err := c.writeJSON(map[string]any{
		"type":      "auth_success",
		"user_id":   claims.Subject,
		"role":      claims.Role,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		hub.logger.Error(ctx, "ws_auth_success_failed", "Failed to send auth success message", err, nil)
		return
	}
	hub.logger.Info(ctx, "ws_connected", "Notification subscriber connected",
		map[string]any{"user_id": c.userID, "role": claims.Role})

	_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := c.ping(); err != nil {
					// unblocks the reader below
					_ = conn.Close()
					return
				}
			}
		}
	}()

	// Subscribers only listen; inbound frames just keep the socket alive.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				hub.logger.Error(ctx, "ws_unexpected_close", "Subscriber connection closed unexpectedly", err,
					map[string]any{"user_id": c.userID})
			} else {
				hub.logger.Info(ctx, "ws_connection_closed", "Subscriber connection closed",
					map[string]any{"user_id": c.userID})
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	}
}
