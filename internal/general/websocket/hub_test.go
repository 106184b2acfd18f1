package websocket

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ride-share/internal/domain/notification"
	"ride-share/internal/domain/user"
	"ride-share/internal/general/contracts"
	"ride-share/internal/general/jwt"
	"ride-share/internal/general/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T) (*Hub, *jwt.Manager, string) {
	t.Helper()
	mgr := jwt.NewManager("test-secret", time.Hour)
	hub := NewHub(logger.NewWithWriter("test", io.Discard), mgr)
	hub.authWait = time.Second
	srv := httptest.NewServer(http.HandlerFunc(hub.Connect))
	t.Cleanup(srv.Close)
	return hub, mgr, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestDeliverReachesAuthenticatedSubscriber(t *testing.T) {
	hub, mgr, url := newTestHub(t)
	riderID := uuid.NewString()
	tok, _, err := mgr.IssueUserToken(riderID, user.RoleRider)
	if err != nil {
		t.Fatal(err)
	}

	conn := dial(t, url)
	if err := conn.WriteJSON(authFrame{Type: "auth", Token: "Bearer " + tok}); err != nil {
		t.Fatal(err)
	}
	var ack map[string]any
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read auth ack: %v", err)
	}
	if ack["type"] != "auth_success" || ack["user_id"] != riderID {
		t.Fatalf("ack = %v", ack)
	}
	if hub.Connections() != 1 {
		t.Fatalf("connections = %d", hub.Connections())
	}

	msg := contracts.NewNotificationMessage(notification.KindBookingConfirmed, notification.Payload{
		BookingID:    "b-1",
		RecipientIDs: []string{riderID},
		Message:      "Your booking is confirmed",
	}, "booking-service", "req-1")
	if err := hub.Deliver(context.Background(), riderID, msg); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	var got pushFrame
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read push: %v", err)
	}
	if got.Type != "notification" || got.Data.Kind != notification.KindBookingConfirmed || got.Data.Payload.BookingID != "b-1" {
		t.Fatalf("push = %+v", got)
	}
}

func TestConnectRejectsBadToken(t *testing.T) {
	hub, _, url := newTestHub(t)
	conn := dial(t, url)
	if err := conn.WriteJSON(authFrame{Type: "auth", Token: "Bearer nope"}); err != nil {
		t.Fatal(err)
	}
	var reply map[string]any
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply["type"] != "auth_error" {
		t.Fatalf("reply = %v", reply)
	}
	if hub.Connections() != 0 {
		t.Fatalf("connections = %d", hub.Connections())
	}
}

func TestDeliverToOfflineRecipientIsNoop(t *testing.T) {
	hub := NewHub(logger.NewWithWriter("test", io.Discard), jwt.NewManager("s", time.Hour))
	msg := contracts.NewNotificationMessage(notification.KindTripCancelled, notification.Payload{}, "trip-service", "")
	if err := hub.Deliver(context.Background(), uuid.NewString(), msg); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
}

func TestBearer(t *testing.T) {
	for in, want := range map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"abc":          "abc",
	} {
		if got := bearer(in); got != want {
			t.Errorf("bearer(%q) = %q, want %q", in, got, want)
		}
	}
}
