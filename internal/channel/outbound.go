package channel

import (
	"context"
	"log/slog"
	"time"
)

// SendRecord describes one provider delivery attempt for diagnostics.
type SendRecord struct {
	BotID      int64
	Channel    ChannelType
	Operation  string
	Status     string
	Error      string
	Endpoint   string
	HTTPStatus int
	Retries    int
	Latency    time.Duration
}

// Send record statuses.
const (
	SendStatusOK    = "ok"
	SendStatusError = "error"
)

// DeliverySink receives send records. Implementations must not block the
// caller on persistence.
type DeliverySink interface {
	RecordSend(ctx context.Context, rec SendRecord)
}

// Dispatcher delivers outbound messages through registered adapters. Delivery
// failures are logged and recorded but never surfaced to the caller: routing
// state must not depend on provider availability.
type Dispatcher struct {
	registry *Registry
	sink     DeliverySink
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(log *slog.Logger, registry *Registry, sink DeliverySink) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		sink:     sink,
		logger:   log.With(slog.String("service", "dispatcher")),
	}
}

// Deliver sends msg through the adapter registered for ct, passing the raw
// channel config through to the adapter. The returned result is best-effort
// delivery metadata; it is zero when no adapter is registered.
func (d *Dispatcher) Deliver(ctx context.Context, botID int64, ct ChannelType, config []byte, msg OutgoingMessage) SendResult {
	adapter, ok := d.registry.Get(ct)
	if !ok {
		d.logger.Warn("no adapter for channel", slog.String("channel", ct.String()))
		return SendResult{}
	}

	start := time.Now()
	res, err := adapter.Send(ctx, config, msg)
	rec := SendRecord{
		BotID:      botID,
		Channel:    ct,
		Operation:  "send_message",
		Status:     SendStatusOK,
		Endpoint:   res.Endpoint,
		HTTPStatus: res.HTTPStatus,
		Retries:    res.Retries,
		Latency:    time.Since(start),
	}
	if err != nil {
		rec.Status = SendStatusError
		rec.Error = err.Error()
		d.logger.Error("outbound delivery failed",
			slog.String("channel", ct.String()),
			slog.Int64("bot_id", botID),
			slog.String("error", err.Error()))
	}
	if d.sink != nil {
		d.sink.RecordSend(ctx, rec)
	}
	return res
}
