package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deskrelay/deskrelay/internal/channel"
)

func TestSyncWebhook_RegistersAndRemoves(t *testing.T) {
	t.Parallel()
	var gotPath, gotURL, gotSecret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseForm()
		gotURL = r.FormValue("url")
		gotSecret = r.FormValue("secret_token")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	a := New(nil)
	a.apiBase = srv.URL
	cfg := []byte(`{"bot_token": "123:abc", "webhook_secret": "s3cret"}`)

	callback := "https://desk.example/bots/7/channels/webhooks/telegram/1"
	if err := a.SyncWebhook(context.Background(), cfg, callback, true); err != nil {
		t.Fatalf("SyncWebhook: %v", err)
	}
	if gotPath != "/bot123:abc/setWebhook" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotURL != callback || gotSecret != "s3cret" {
		t.Fatalf("params = (%q, %q)", gotURL, gotSecret)
	}

	if err := a.SyncWebhook(context.Background(), cfg, callback, false); err != nil {
		t.Fatalf("SyncWebhook: %v", err)
	}
	if gotPath != "/bot123:abc/deleteWebhook" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestSyncWebhook_SurfacesAPIError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false, "description": "bad webhook: HTTPS url must be provided"}`))
	}))
	defer srv.Close()

	a := New(nil)
	a.apiBase = srv.URL
	err := a.SyncWebhook(context.Background(), []byte(`{"bot_token": "123:abc"}`), "http://plain", true)
	if err == nil || !strings.Contains(err.Error(), "bad webhook") {
		t.Fatalf("err = %v", err)
	}
}

func TestNormalize_TextMessage(t *testing.T) {
	t.Parallel()
	a := New(nil)
	body := []byte(`{
		"update_id": 10,
		"message": {
			"message_id": 42,
			"date": 1700000000,
			"text": "hello there",
			"chat": {"id": 123456, "type": "private"},
			"from": {"id": 777, "first_name": "Ada", "last_name": "Lovelace"}
		}
	}`)

	msg := a.Normalize(body)

	if msg.Skip {
		t.Fatalf("message skipped: %s", msg.SkipReason)
	}
	if msg.ExternalChatID != "123456" || msg.ExternalUserID != "777" {
		t.Fatalf("ids = (%q, %q)", msg.ExternalChatID, msg.ExternalUserID)
	}
	if msg.ExternalMessageID != "42" {
		t.Fatalf("message id = %q, want 42", msg.ExternalMessageID)
	}
	if msg.UserDisplayName != "Ada Lovelace" {
		t.Fatalf("display name = %q", msg.UserDisplayName)
	}
	if msg.Text != "hello there" {
		t.Fatalf("text = %q", msg.Text)
	}
}

func TestNormalize_EditedMessage(t *testing.T) {
	t.Parallel()
	a := New(nil)
	body := []byte(`{
		"update_id": 11,
		"edited_message": {
			"message_id": 43,
			"date": 1700000100,
			"text": "hello, corrected",
			"chat": {"id": 123456, "type": "private"},
			"from": {"id": 777, "first_name": "Ada"}
		}
	}`)

	msg := a.Normalize(body)

	if msg.Skip {
		t.Fatalf("edited message skipped: %s", msg.SkipReason)
	}
	if msg.ExternalChatID != "123456" || msg.Text != "hello, corrected" {
		t.Fatalf("normalized = %+v", msg)
	}
}

func TestNormalize_CallbackQuery(t *testing.T) {
	t.Parallel()
	a := New(nil)
	body := []byte(`{
		"update_id": 12,
		"callback_query": {
			"id": "cb-99",
			"data": "order_status",
			"from": {"id": 777, "first_name": "Ada"},
			"message": {"message_id": 5, "chat": {"id": 123456, "type": "private"}}
		}
	}`)

	msg := a.Normalize(body)

	if msg.Skip {
		t.Fatalf("callback skipped: %s", msg.SkipReason)
	}
	if msg.Text != "order_status" || msg.ExternalMessageID != "cb-99" {
		t.Fatalf("normalized = %+v", msg)
	}
	if msg.ExternalChatID != "123456" || msg.ExternalUserID != "777" {
		t.Fatalf("ids = (%q, %q)", msg.ExternalChatID, msg.ExternalUserID)
	}
}

func TestNormalize_CallbackWithoutMessageFallsBackToUser(t *testing.T) {
	t.Parallel()
	a := New(nil)
	body := []byte(`{
		"update_id": 13,
		"callback_query": {"id": "cb-1", "data": "help", "from": {"id": 777, "first_name": "Ada"}}
	}`)

	msg := a.Normalize(body)

	if msg.Skip {
		t.Fatalf("callback skipped: %s", msg.SkipReason)
	}
	if msg.ExternalChatID != "777" {
		t.Fatalf("chat id = %q, want user id fallback", msg.ExternalChatID)
	}
}

func TestNormalize_CaptionFallback(t *testing.T) {
	t.Parallel()
	a := New(nil)
	body := []byte(`{
		"update_id": 14,
		"message": {
			"message_id": 44,
			"caption": "see attached invoice",
			"chat": {"id": 123456, "type": "private"},
			"from": {"id": 777, "first_name": "Ada"}
		}
	}`)

	msg := a.Normalize(body)

	if msg.Skip {
		t.Fatalf("captioned message skipped: %s", msg.SkipReason)
	}
	if msg.Text != "see attached invoice" {
		t.Fatalf("text = %q", msg.Text)
	}
}

func TestNormalize_SkipsTextlessUpdates(t *testing.T) {
	t.Parallel()
	a := New(nil)
	cases := map[string]struct {
		body   string
		reason string
	}{
		"sticker only": {
			body:   `{"update_id": 12, "message": {"message_id": 2, "chat": {"id": 1}, "sticker": {"file_id": "abc"}}}`,
			reason: channel.SkipEmptyUpdate,
		},
		"chat member update": {
			body:   `{"update_id": 15, "my_chat_member": {"chat": {"id": 1}}}`,
			reason: channel.SkipEmptyUpdate,
		},
		"garbage": {
			body:   `{{{`,
			reason: channel.SkipMalformed,
		},
	}
	for name, tc := range cases {
		msg := a.Normalize([]byte(tc.body))
		if !msg.Skip || msg.SkipReason != tc.reason {
			t.Fatalf("%s: got (skip=%v, reason=%q), want reason %q", name, msg.Skip, msg.SkipReason, tc.reason)
		}
	}
}

func TestVerifyWebhook(t *testing.T) {
	t.Parallel()
	a := New(nil)
	cfg := []byte(`{"bot_token": "t", "webhook_secret": "s3cret"}`)

	req := httptest.NewRequest("POST", "/webhook", nil)
	req.Header.Set(SecretHeader, "s3cret")
	if !a.VerifyWebhook(cfg, req) {
		t.Fatal("matching secret rejected")
	}

	req = httptest.NewRequest("POST", "/webhook", nil)
	req.Header.Set(SecretHeader, "wrong")
	if a.VerifyWebhook(cfg, req) {
		t.Fatal("wrong secret accepted")
	}

	req = httptest.NewRequest("POST", "/webhook", nil)
	if !a.VerifyWebhook([]byte(`{"bot_token": "t"}`), req) {
		t.Fatal("empty configured secret should accept")
	}
}

func TestDefaultConfig_GeneratesSecret(t *testing.T) {
	t.Parallel()
	a := New(nil)
	first := a.DefaultConfig()["webhook_secret"].(string)
	second := a.DefaultConfig()["webhook_secret"].(string)
	if first == "" || first == second {
		t.Fatalf("secrets = (%q, %q), want distinct non-empty", first, second)
	}
}
