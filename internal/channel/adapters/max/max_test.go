package max

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deskrelay/deskrelay/internal/channel"
)

func TestNormalize_MessageCreated(t *testing.T) {
	t.Parallel()
	a := New(nil)
	body := []byte(`{
		"update_type": "message_created",
		"timestamp": 1700000000000,
		"message": {
			"sender": {"user_id": 31, "name": "Olga"},
			"recipient": {"chat_id": 90},
			"body": {"mid": "mid.1", "text": "hello"}
		}
	}`)

	msg := a.Normalize(body)

	if msg.Skip {
		t.Fatalf("skipped: %s", msg.SkipReason)
	}
	if msg.ExternalChatID != "90" || msg.ExternalUserID != "31" || msg.Text != "hello" {
		t.Fatalf("normalized = %+v", msg)
	}

	cb := a.Normalize([]byte(`{"update_type": "message_callback"}`))
	if !cb.Skip || cb.SkipReason != channel.SkipEmptyUpdate {
		t.Fatalf("callback not skipped: %+v", cb)
	}
}

func TestSend(t *testing.T) {
	t.Parallel()
	var gotToken, gotChat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("access_token")
		gotChat = r.URL.Query().Get("chat_id")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"body": map[string]string{"mid": "mid.2"}},
		})
	}))
	defer srv.Close()

	a := New(nil)
	cfg := []byte(`{"base_url": "` + srv.URL + `", "access_token": "at"}`)

	res, err := a.Send(context.Background(), cfg, channel.OutgoingMessage{ExternalChatID: "90", Text: "reply"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotToken != "at" || gotChat != "90" {
		t.Fatalf("request = (token %q, chat %q)", gotToken, gotChat)
	}
	if res.ExternalMessageID != "mid.2" {
		t.Fatalf("result = %+v", res)
	}
}
