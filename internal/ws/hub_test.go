package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialPair upgrades one server-side connection and returns both ends.
func dialPair(t *testing.T) (server *websocket.Conn, client *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	done := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		done <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	select {
	case server = <-done:
	case <-time.After(time.Second):
		t.Fatal("server connection not established")
	}
	t.Cleanup(func() { _ = server.Close() })
	return server, client
}

func TestBroadcastToAdmins(t *testing.T) {
	serverConn, clientConn := dialPair(t)
	hub := NewHub(nil)
	hub.RegisterAdmin(1, serverConn)

	reached := hub.BroadcastToAdmins(map[string]string{"type": "dialog_updated"})
	if reached != 1 {
		t.Fatalf("reached = %d, want 1", reached)
	}

	var payload map[string]string
	_ = clientConn.SetReadDeadline(time.Now().Add(time.Second))
	if err := clientConn.ReadJSON(&payload); err != nil {
		t.Fatalf("read: %v", err)
	}
	if payload["type"] != "dialog_updated" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestBroadcastToAdminsTargeted(t *testing.T) {
	serverConn, _ := dialPair(t)
	hub := NewHub(nil)
	hub.RegisterAdmin(1, serverConn)

	if reached := hub.BroadcastToAdmins(map[string]string{"type": "x"}, 2); reached != 0 {
		t.Fatalf("reached = %d, want 0 for non-matching target", reached)
	}
	if reached := hub.BroadcastToAdmins(map[string]string{"type": "x"}, 1); reached != 1 {
		t.Fatalf("reached = %d, want 1 for matching target", reached)
	}
}

func TestBroadcastPrunesDeadConnections(t *testing.T) {
	serverConn, clientConn := dialPair(t)
	hub := NewHub(nil)
	hub.RegisterAdmin(1, serverConn)

	_ = clientConn.Close()
	_ = serverConn.Close()

	// The write fails on the closed connection and the hub drops it.
	hub.BroadcastToAdmins(map[string]string{"type": "x"})
	if got := hub.AdminConnections(); got != 0 {
		t.Fatalf("connections after prune = %d, want 0", got)
	}
}

func TestPushToSession(t *testing.T) {
	serverConn, clientConn := dialPair(t)
	hub := NewHub(nil)
	hub.RegisterSession("s-1", serverConn)

	if reached := hub.PushToSession("s-1", map[string]string{"text": "hi"}); reached != 1 {
		t.Fatalf("reached = %d, want 1", reached)
	}
	if reached := hub.PushToSession("missing", nil); reached != 0 {
		t.Fatalf("reached for unknown session = %d, want 0", reached)
	}

	var payload map[string]string
	_ = clientConn.SetReadDeadline(time.Now().Add(time.Second))
	if err := clientConn.ReadJSON(&payload); err != nil {
		t.Fatalf("read: %v", err)
	}
	if payload["text"] != "hi" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestUnregister(t *testing.T) {
	serverConn, _ := dialPair(t)
	hub := NewHub(nil)
	hub.RegisterAdmin(2, serverConn)
	hub.UnregisterAdmin(2, serverConn)
	if got := hub.AdminConnections(); got != 0 {
		t.Fatalf("connections = %d, want 0", got)
	}
}
