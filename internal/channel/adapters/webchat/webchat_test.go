package webchat

import (
	"context"
	"testing"

	"github.com/deskrelay/deskrelay/internal/channel"
)

type fakePusher struct {
	sessions []string
	payloads []any
	reached  int
}

func (p *fakePusher) PushToSession(sessionID string, payload any) int {
	p.sessions = append(p.sessions, sessionID)
	p.payloads = append(p.payloads, payload)
	return p.reached
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	a := New(nil, nil)

	msg := a.Normalize([]byte(`{"session_id": "s-1", "user_name": "Guest", "text": "hi"}`))
	if msg.Skip {
		t.Fatalf("skipped: %s", msg.SkipReason)
	}
	if msg.ExternalChatID != "s-1" || msg.ExternalUserID != "s-1" {
		t.Fatalf("normalized = %+v", msg)
	}

	empty := a.Normalize([]byte(`{"session_id": "s-1", "text": "   "}`))
	if !empty.Skip || empty.SkipReason != channel.SkipEmptyUpdate {
		t.Fatalf("blank text not skipped: %+v", empty)
	}
}

func TestSend_PushesToSession(t *testing.T) {
	t.Parallel()
	pusher := &fakePusher{reached: 1}
	a := New(nil, pusher)

	res, err := a.Send(context.Background(), nil, channel.OutgoingMessage{ExternalChatID: "s-2", Text: "answer"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Endpoint != "websocket" {
		t.Fatalf("result = %+v", res)
	}
	if len(pusher.sessions) != 1 || pusher.sessions[0] != "s-2" {
		t.Fatalf("pushed sessions = %v", pusher.sessions)
	}
}

func TestSend_NoConnectionsIsNotAnError(t *testing.T) {
	t.Parallel()
	a := New(nil, &fakePusher{reached: 0})
	if _, err := a.Send(context.Background(), nil, channel.OutgoingMessage{ExternalChatID: "s-3", Text: "x"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
}
