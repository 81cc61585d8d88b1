package avito

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/deskrelay/deskrelay/internal/channel"
)

func incomingBody(authorID, itemID int64, text string) []byte {
	body, _ := json.Marshal(map[string]any{
		"id": "wh-1",
		"payload": map[string]any{
			"type": "message",
			"value": map[string]any{
				"id":        "msg-1",
				"chat_id":   "chat-1",
				"user_id":   100,
				"author_id": authorID,
				"created":   1700000000,
				"type":      "text",
				"item_id":   itemID,
				"content":   map[string]string{"text": text},
			},
		},
	})
	return body
}

func TestNormalize_IncomingText(t *testing.T) {
	t.Parallel()
	a := New(nil)
	cfg := []byte(`{"user_id": 100, "reply_all_items": true}`)

	msg := a.NormalizeWithConfig(cfg, incomingBody(200, 555, "is it available?"))

	if msg.Skip {
		t.Fatalf("skipped: %s", msg.SkipReason)
	}
	if msg.ExternalChatID != "chat-1" || msg.ExternalUserID != "200" || msg.ItemID != "555" {
		t.Fatalf("normalized = %+v", msg)
	}
}

func TestNormalize_SkipsOwnMessages(t *testing.T) {
	t.Parallel()
	a := New(nil)
	cfg := []byte(`{"user_id": 100, "reply_all_items": true}`)

	msg := a.NormalizeWithConfig(cfg, incomingBody(100, 555, "auto reply"))

	if !msg.Skip || msg.SkipReason != channel.SkipOutgoingMessage {
		t.Fatalf("got (skip=%v, reason=%q), want outgoing_message", msg.Skip, msg.SkipReason)
	}
}

func TestNormalize_SkipsSystemMessages(t *testing.T) {
	t.Parallel()
	a := New(nil)
	body, _ := json.Marshal(map[string]any{
		"id": "wh-2",
		"payload": map[string]any{
			"type": "message",
			"value": map[string]any{
				"id":      "msg-2",
				"chat_id": "chat-1",
				"type":    "system",
				"content": map[string]string{"text": "chat created"},
			},
		},
	})

	msg := a.NormalizeWithConfig(nil, body)

	if !msg.Skip || msg.SkipReason != channel.SkipSystemMessage {
		t.Fatalf("got (skip=%v, reason=%q), want system_message", msg.Skip, msg.SkipReason)
	}
}

func TestNormalize_ItemFilter(t *testing.T) {
	t.Parallel()
	a := New(nil)
	cfg := []byte(`{"user_id": 100, "reply_all_items": false, "allowed_item_ids": [555]}`)

	allowed := a.NormalizeWithConfig(cfg, incomingBody(200, 555, "hi"))
	if allowed.Skip {
		t.Fatalf("allowed item skipped: %s", allowed.SkipReason)
	}

	blocked := a.NormalizeWithConfig(cfg, incomingBody(200, 777, "hi"))
	if !blocked.Skip || blocked.SkipReason != channel.SkipItemNotAllowed {
		t.Fatalf("got (skip=%v, reason=%q), want item_not_allowed", blocked.Skip, blocked.SkipReason)
	}
}

func TestNormalize_ItemFilterWithoutItemID(t *testing.T) {
	t.Parallel()
	a := New(nil)
	cfg := []byte(`{"user_id": 100, "reply_all_items": false, "allowed_item_ids": [555]}`)

	msg := a.NormalizeWithConfig(cfg, incomingBody(200, 0, "hi"))
	if !msg.Skip || msg.SkipReason != channel.SkipItemIDMissing {
		t.Fatalf("got (skip=%v, reason=%q), want item_id_missing", msg.Skip, msg.SkipReason)
	}

	// With reply_all_items the absence of an item id is not a filter concern.
	open := a.NormalizeWithConfig([]byte(`{"user_id": 100, "reply_all_items": true}`), incomingBody(200, 0, "hi"))
	if open.Skip {
		t.Fatalf("reply-all message without item id skipped: %s", open.SkipReason)
	}
}

func TestSend_RetriesOnceOnAuthReject(t *testing.T) {
	t.Parallel()
	var tokenCalls, sendCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			n := atomic.AddInt32(&tokenCalls, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-" + string(rune('0'+n)),
				"expires_in":   3600,
			})
			return
		}
		if atomic.AddInt32(&sendCalls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "out-1"})
	}))
	defer srv.Close()

	a := New(nil)
	cfg := []byte(`{"base_url": "` + srv.URL + `", "client_id": "c", "client_secret": "s", "user_id": 100}`)

	res, err := a.Send(context.Background(), cfg, channel.OutgoingMessage{ExternalChatID: "chat-1", Text: "reply"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Retries != 1 {
		t.Fatalf("retries = %d, want 1", res.Retries)
	}
	if atomic.LoadInt32(&tokenCalls) != 2 || atomic.LoadInt32(&sendCalls) != 2 {
		t.Fatalf("calls = (token %d, send %d), want (2, 2)", tokenCalls, sendCalls)
	}
	if res.ExternalMessageID != "out-1" {
		t.Fatalf("result = %+v", res)
	}
}

func TestSend_FailsAfterSecondAuthReject(t *testing.T) {
	t.Parallel()
	var sendCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
			return
		}
		atomic.AddInt32(&sendCalls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	a := New(nil)
	cfg := []byte(`{"base_url": "` + srv.URL + `", "client_id": "c2", "client_secret": "s", "user_id": 100}`)

	_, err := a.Send(context.Background(), cfg, channel.OutgoingMessage{ExternalChatID: "chat-1", Text: "reply"})
	if err == nil {
		t.Fatal("Send succeeded, want error after single retry")
	}
	if got := atomic.LoadInt32(&sendCalls); got != 2 {
		t.Fatalf("send calls = %d, want exactly 2", got)
	}
}

func TestSend_ReusesCachedToken(t *testing.T) {
	t.Parallel()
	var tokenCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			atomic.AddInt32(&tokenCalls, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "out"})
	}))
	defer srv.Close()

	a := New(nil)
	cfg := []byte(`{"base_url": "` + srv.URL + `", "client_id": "c3", "client_secret": "s", "user_id": 100}`)

	for i := 0; i < 3; i++ {
		if _, err := a.Send(context.Background(), cfg, channel.OutgoingMessage{ExternalChatID: "c", Text: "t"}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&tokenCalls); got != 1 {
		t.Fatalf("token calls = %d, want 1", got)
	}
}

func TestSyncWebhook_SubscribeAndUnsubscribe(t *testing.T) {
	t.Parallel()
	var gotPath, gotAuth, gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
			return
		}
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotURL = body["url"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := New(nil)
	cfg := []byte(`{"base_url": "` + srv.URL + `", "client_id": "c4", "client_secret": "s", "user_id": 100, "webhook_secret": "qs"}`)

	callback := "https://desk.example/bots/7/channels/webhooks/avito/2"
	if err := a.SyncWebhook(context.Background(), cfg, callback, true); err != nil {
		t.Fatalf("SyncWebhook: %v", err)
	}
	if gotPath != "/messenger/v3/webhook" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotURL != callback+"?secret=qs" {
		t.Fatalf("url = %q", gotURL)
	}

	if err := a.SyncWebhook(context.Background(), cfg, callback, false); err != nil {
		t.Fatalf("SyncWebhook: %v", err)
	}
	if gotPath != "/messenger/v1/webhook/unsubscribe" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestVerifyWebhook_QuerySecret(t *testing.T) {
	t.Parallel()
	a := New(nil)
	cfg := []byte(`{"webhook_secret": "qs"}`)

	req := httptest.NewRequest("POST", "/webhook?secret=qs", nil)
	if !a.VerifyWebhook(cfg, req) {
		t.Fatal("matching secret rejected")
	}
	req = httptest.NewRequest("POST", "/webhook?secret=bad", nil)
	if a.VerifyWebhook(cfg, req) {
		t.Fatal("wrong secret accepted")
	}
}
