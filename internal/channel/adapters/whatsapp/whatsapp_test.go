package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deskrelay/deskrelay/internal/channel"
)

func TestGreenNormalize_IncomingText(t *testing.T) {
	t.Parallel()
	a := NewGreen(nil)
	body := []byte(`{
		"typeWebhook": "incomingMessageReceived",
		"idMessage": "BAE5F1",
		"timestamp": 1700000000,
		"senderData": {"chatId": "79001234567@c.us", "sender": "79001234567@c.us", "senderName": "Ivan"},
		"messageData": {"typeMessage": "textMessage", "textMessageData": {"textMessage": "need help"}}
	}`)

	msg := a.Normalize(body)

	if msg.Skip {
		t.Fatalf("skipped: %s", msg.SkipReason)
	}
	if msg.ExternalChatID != "79001234567@c.us" || msg.Text != "need help" {
		t.Fatalf("normalized = %+v", msg)
	}
	if msg.UserDisplayName != "Ivan" || msg.ExternalMessageID != "BAE5F1" {
		t.Fatalf("normalized = %+v", msg)
	}
}

func TestGreenNormalize_SkipsOutgoingEcho(t *testing.T) {
	t.Parallel()
	a := NewGreen(nil)
	body := []byte(`{"typeWebhook": "outgoingAPIMessageReceived", "senderData": {"chatId": "x"}}`)

	msg := a.Normalize(body)

	if !msg.Skip || msg.SkipReason != channel.SkipOutgoingMessage {
		t.Fatalf("got (skip=%v, reason=%q), want outgoing_message", msg.Skip, msg.SkipReason)
	}
}

func TestGreenSend(t *testing.T) {
	t.Parallel()
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"idMessage": "out-1"})
	}))
	defer srv.Close()

	a := NewGreen(nil)
	cfg := []byte(`{"base_url": "` + srv.URL + `", "instance_id": "1101", "api_token": "tok"}`)

	res, err := a.Send(context.Background(), cfg, channel.OutgoingMessage{ExternalChatID: "7900@c.us", Text: "reply"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/waInstance1101/sendMessage/tok" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["chatId"] != "7900@c.us" || gotBody["message"] != "reply" {
		t.Fatalf("body = %v", gotBody)
	}
	if res.ExternalMessageID != "out-1" || res.HTTPStatus != 200 {
		t.Fatalf("result = %+v", res)
	}
}

func TestD360Normalize(t *testing.T) {
	t.Parallel()
	a := NewD360(nil)
	body := []byte(`{
		"contacts": [{"wa_id": "79007654321", "profile": {"name": "Maria"}}],
		"messages": [{"from": "79007654321", "id": "wamid.X", "timestamp": "1700000100", "type": "text", "text": {"body": "hola"}}]
	}`)

	msg := a.Normalize(body)

	if msg.Skip {
		t.Fatalf("skipped: %s", msg.SkipReason)
	}
	if msg.ExternalChatID != "79007654321" || msg.Text != "hola" || msg.UserDisplayName != "Maria" {
		t.Fatalf("normalized = %+v", msg)
	}

	status := a.Normalize([]byte(`{"statuses": [{"id": "wamid.X", "status": "delivered"}]}`))
	if !status.Skip || status.SkipReason != channel.SkipEmptyUpdate {
		t.Fatalf("status callback not skipped: %+v", status)
	}
}

func TestGreenNormalize_GatewayEnvelope(t *testing.T) {
	t.Parallel()
	a := NewGreen(nil)

	single := a.Normalize([]byte(`{"message": {"from": "7900@c.us", "id": "m-1", "text": {"body": "hi there"}}}`))
	if single.Skip {
		t.Fatalf("single message envelope skipped: %s", single.SkipReason)
	}
	if single.ExternalChatID != "7900@c.us" || single.Text != "hi there" || single.ExternalMessageID != "m-1" {
		t.Fatalf("normalized = %+v", single)
	}

	bare := a.Normalize([]byte(`{"from": "7900@c.us", "message_id": "m-2", "text": "plain string"}`))
	if bare.Skip {
		t.Fatalf("bare text envelope skipped: %s", bare.SkipReason)
	}
	if bare.Text != "plain string" || bare.ExternalMessageID != "m-2" {
		t.Fatalf("normalized = %+v", bare)
	}

	user := a.Normalize([]byte(`{"user": "u-3", "text": "via user field"}`))
	if user.Skip || user.ExternalUserID != "u-3" {
		t.Fatalf("normalized = %+v", user)
	}
}

func TestD360Normalize_SingleMessageAndBareText(t *testing.T) {
	t.Parallel()
	a := NewD360(nil)

	single := a.Normalize([]byte(`{"message": {"from": "79007654321", "id": "wamid.Y", "text": {"body": "uno"}}}`))
	if single.Skip {
		t.Fatalf("single message skipped: %s", single.SkipReason)
	}
	if single.ExternalChatID != "79007654321" || single.Text != "uno" {
		t.Fatalf("normalized = %+v", single)
	}

	bare := a.Normalize([]byte(`{"messages": [{"from": "79007654321", "id": "wamid.Z", "text": "dos"}]}`))
	if bare.Skip {
		t.Fatalf("bare string text skipped: %s", bare.SkipReason)
	}
	if bare.Text != "dos" {
		t.Fatalf("text = %q", bare.Text)
	}
}

func TestD360VerifyWebhook(t *testing.T) {
	t.Parallel()
	a := NewD360(nil)
	cfg := []byte(`{"api_key": "k", "webhook_secret": "hook"}`)

	req := httptest.NewRequest("POST", "/webhook", nil)
	req.Header.Set(D360APIKeyHeader, "hook")
	if !a.VerifyWebhook(cfg, req) {
		t.Fatal("matching secret rejected")
	}
	req.Header.Set(D360APIKeyHeader, "nope")
	if a.VerifyWebhook(cfg, req) {
		t.Fatal("wrong secret accepted")
	}
}

func TestCustomNormalize_FallsBackToChatID(t *testing.T) {
	t.Parallel()
	a := NewCustom(nil)
	msg := a.Normalize([]byte(`{"chat_id": "room-9", "text": "ping"}`))

	if msg.Skip {
		t.Fatalf("skipped: %s", msg.SkipReason)
	}
	if msg.ExternalUserID != "room-9" {
		t.Fatalf("user id = %q, want chat id fallback", msg.ExternalUserID)
	}
}

func TestCustomNormalize_ConfiguredFieldNames(t *testing.T) {
	t.Parallel()
	a := NewCustom(nil)
	cfg := []byte(`{"chat_id_field": "conversation", "user_id_field": "sender", "text_field": "body", "message_id_field": "uid"}`)

	msg := a.NormalizeWithConfig(cfg, []byte(`{"conversation": "room-1", "sender": "u-7", "body": "renamed fields", "uid": "m-5"}`))

	if msg.Skip {
		t.Fatalf("skipped: %s", msg.SkipReason)
	}
	if msg.ExternalChatID != "room-1" || msg.ExternalUserID != "u-7" {
		t.Fatalf("ids = (%q, %q)", msg.ExternalChatID, msg.ExternalUserID)
	}
	if msg.Text != "renamed fields" || msg.ExternalMessageID != "m-5" {
		t.Fatalf("normalized = %+v", msg)
	}

	// The defaults still apply when the config names nothing.
	def := a.NormalizeWithConfig(nil, []byte(`{"chat_id": "room-2", "text": "default names"}`))
	if def.Skip || def.ExternalChatID != "room-2" {
		t.Fatalf("default field names broken: %+v", def)
	}
}

func TestCustomSend_SetsConfiguredHeader(t *testing.T) {
	t.Parallel()
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Gateway-Token")
		_ = json.NewEncoder(w).Encode(map[string]string{"message_id": "42"})
	}))
	defer srv.Close()

	a := NewCustom(nil)
	cfg := []byte(`{"base_url": "` + srv.URL + `", "api_key_header": "X-Gateway-Token", "api_key": "tok"}`)

	res, err := a.Send(context.Background(), cfg, channel.OutgoingMessage{ExternalChatID: "c", Text: "t"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotKey != "tok" {
		t.Fatalf("api key header = %q", gotKey)
	}
	if res.ExternalMessageID != "42" {
		t.Fatalf("result = %+v", res)
	}
}
