// Package diagnostics records the outcome of every provider integration call
// and enforces a retention window over the log.
package diagnostics

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/deskrelay/deskrelay/internal/channel"
	"github.com/deskrelay/deskrelay/internal/db"
	"github.com/deskrelay/deskrelay/internal/db/sqlc"
)

// Integration call directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

const insertTimeout = 5 * time.Second

// Entry is one integration log record.
type Entry struct {
	ID           int64     `json:"id"`
	BotID        int64     `json:"bot_id,omitempty"`
	ChannelType  string    `json:"channel_type"`
	Direction    string    `json:"direction"`
	Operation    string    `json:"operation"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Endpoint     string    `json:"endpoint,omitempty"`
	HTTPStatus   int       `json:"http_status,omitempty"`
	RetryCount   int       `json:"retry_count"`
	LatencyMs    int64     `json:"latency_ms"`
	RequestID    string    `json:"request_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Service persists integration records without blocking callers.
type Service struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

// NewService creates the diagnostics service.
func NewService(log *slog.Logger, queries *sqlc.Queries) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "diagnostics")),
	}
}

// RecordSend implements channel.DeliverySink. The insert runs detached from
// the request so a slow log table cannot stall delivery.
func (s *Service) RecordSend(_ context.Context, rec channel.SendRecord) {
	s.insert(sqlc.CreateIntegrationLogParams{
		BotID:        db.Int8(rec.BotID),
		ChannelType:  rec.Channel.String(),
		Direction:    DirectionOutbound,
		Operation:    rec.Operation,
		Status:       rec.Status,
		ErrorMessage: rec.Error,
		Endpoint:     rec.Endpoint,
		HttpStatus:   int32(rec.HTTPStatus),
		RetryCount:   int32(rec.Retries),
		LatencyMs:    rec.Latency.Milliseconds(),
		RequestID:    db.UUID(uuid.New()),
	})
}

// RecordInbound logs the outcome of webhook processing.
func (s *Service) RecordInbound(_ context.Context, botID int64, ct channel.ChannelType, operation, status, errMsg string) {
	s.insert(sqlc.CreateIntegrationLogParams{
		BotID:        db.Int8(botID),
		ChannelType:  ct.String(),
		Direction:    DirectionInbound,
		Operation:    operation,
		Status:       status,
		ErrorMessage: errMsg,
		RequestID:    db.UUID(uuid.New()),
	})
}

func (s *Service) insert(params sqlc.CreateIntegrationLogParams) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		defer cancel()
		if err := s.queries.CreateIntegrationLog(ctx, params); err != nil {
			s.logger.Error("integration log insert failed", slog.String("error", err.Error()))
		}
	}()
}

// List returns the most recent entries.
func (s *Service) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.queries.ListIntegrationLogs(ctx, int32(limit))
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entry := Entry{
			ID:           row.ID,
			BotID:        db.Int8OrZero(row.BotID),
			ChannelType:  row.ChannelType,
			Direction:    row.Direction,
			Operation:    row.Operation,
			Status:       row.Status,
			ErrorMessage: row.ErrorMessage,
			Endpoint:     row.Endpoint,
			HTTPStatus:   int(row.HttpStatus),
			RetryCount:   int(row.RetryCount),
			LatencyMs:    row.LatencyMs,
			CreatedAt:    db.TimeOrZero(row.CreatedAt),
		}
		if row.RequestID.Valid {
			entry.RequestID = uuid.UUID(row.RequestID.Bytes).String()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Purge deletes entries older than the retention window and reports how many
// were removed.
func (s *Service) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.queries.DeleteIntegrationLogsBefore(ctx, db.Timestamptz(cutoff))
}
