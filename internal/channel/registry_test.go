package channel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/deskrelay/deskrelay/internal/channel"
)

const testChannelType = channel.ChannelType("test")

type mockAdapter struct {
	typ     channel.ChannelType
	sent    []channel.OutgoingMessage
	sendErr error
	result  channel.SendResult
}

func (a *mockAdapter) Type() channel.ChannelType { return a.typ }

func (a *mockAdapter) Normalize(body []byte) channel.IncomingMessage {
	return channel.IncomingMessage{Channel: a.typ, Text: string(body)}
}

func (a *mockAdapter) Send(ctx context.Context, config []byte, msg channel.OutgoingMessage) (channel.SendResult, error) {
	a.sent = append(a.sent, msg)
	return a.result, a.sendErr
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()
	reg := channel.NewRegistry()
	reg.MustRegister(&mockAdapter{typ: testChannelType})

	adapter, ok := reg.Get(testChannelType)
	if !ok || adapter == nil {
		t.Fatalf("Get(test) = (%v, %v), want (non-nil, true)", adapter, ok)
	}
	if _, ok := reg.Get(channel.ChannelType("unknown")); ok {
		t.Fatal("Get(unknown) succeeded, want miss")
	}
}

func TestRegistry_RejectsDuplicate(t *testing.T) {
	t.Parallel()
	reg := channel.NewRegistry()
	reg.MustRegister(&mockAdapter{typ: testChannelType})
	if err := reg.Register(&mockAdapter{typ: testChannelType}); err == nil {
		t.Fatal("duplicate Register succeeded, want error")
	}
}

func TestRegistry_GetNormalizesType(t *testing.T) {
	t.Parallel()
	reg := channel.NewRegistry()
	reg.MustRegister(&mockAdapter{typ: testChannelType})
	if _, ok := reg.Get(channel.ChannelType(" TEST ")); !ok {
		t.Fatal("Get with unnormalized type missed")
	}
}

type recordingSink struct {
	records []channel.SendRecord
}

func (s *recordingSink) RecordSend(ctx context.Context, rec channel.SendRecord) {
	s.records = append(s.records, rec)
}

func TestDispatcher_DeliverRecordsSuccess(t *testing.T) {
	t.Parallel()
	reg := channel.NewRegistry()
	adapter := &mockAdapter{typ: testChannelType, result: channel.SendResult{ExternalMessageID: "m1", HTTPStatus: 200}}
	reg.MustRegister(adapter)
	sink := &recordingSink{}
	d := channel.NewDispatcher(nil, reg, sink)

	res := d.Deliver(context.Background(), 7, testChannelType, nil, channel.OutgoingMessage{ExternalChatID: "c1", Text: "hi"})

	if res.ExternalMessageID != "m1" {
		t.Fatalf("ExternalMessageID = %q, want m1", res.ExternalMessageID)
	}
	if len(adapter.sent) != 1 {
		t.Fatalf("adapter sends = %d, want 1", len(adapter.sent))
	}
	if len(sink.records) != 1 || sink.records[0].Status != channel.SendStatusOK {
		t.Fatalf("sink records = %+v, want one ok record", sink.records)
	}
	if sink.records[0].BotID != 7 {
		t.Fatalf("record bot id = %d, want 7", sink.records[0].BotID)
	}
}

func TestDispatcher_DeliverSwallowsSendError(t *testing.T) {
	t.Parallel()
	reg := channel.NewRegistry()
	reg.MustRegister(&mockAdapter{typ: testChannelType, sendErr: errors.New("provider down")})
	sink := &recordingSink{}
	d := channel.NewDispatcher(nil, reg, sink)

	res := d.Deliver(context.Background(), 1, testChannelType, nil, channel.OutgoingMessage{Text: "hi"})

	if res.ExternalMessageID != "" {
		t.Fatalf("result = %+v, want zero value", res)
	}
	if len(sink.records) != 1 || sink.records[0].Status != channel.SendStatusError {
		t.Fatalf("sink records = %+v, want one error record", sink.records)
	}
	if sink.records[0].Error != "provider down" {
		t.Fatalf("record error = %q", sink.records[0].Error)
	}
}

func TestDispatcher_DeliverUnknownChannel(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	d := channel.NewDispatcher(nil, channel.NewRegistry(), sink)

	res := d.Deliver(context.Background(), 1, testChannelType, nil, channel.OutgoingMessage{Text: "hi"})

	if res != (channel.SendResult{}) {
		t.Fatalf("result = %+v, want zero value", res)
	}
	if len(sink.records) != 0 {
		t.Fatalf("sink records = %+v, want none", sink.records)
	}
}
