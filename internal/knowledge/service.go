package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deskrelay/deskrelay/internal/ai"
	"github.com/deskrelay/deskrelay/internal/db"
	"github.com/deskrelay/deskrelay/internal/db/sqlc"
)

// ErrChunkNotFound is returned when deleting a chunk that does not exist.
var ErrChunkNotFound = errors.New("knowledge chunk not found")

// Chunk is one stored knowledge fragment.
type Chunk struct {
	ID        int64     `json:"id"`
	BotID     int64     `json:"bot_id"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// VectorStore is the vector side of the knowledge base.
type VectorStore interface {
	Upsert(ctx context.Context, botID, chunkID int64, vector []float32, content string) error
	Delete(ctx context.Context, chunkID int64) error
	DeleteByBot(ctx context.Context, botID int64) error
	Search(ctx context.Context, botID int64, vector []float32, topK int, minScore float32) ([]ai.Passage, error)
}

// Service keeps chunk rows and vectors in step and serves retrieval for the
// answer pipeline.
type Service struct {
	queries  *sqlc.Queries
	store    VectorStore
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewService creates the knowledge service.
func NewService(log *slog.Logger, queries *sqlc.Queries, store VectorStore, embedder ai.Embedder) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries:  queries,
		store:    store,
		embedder: embedder,
		logger:   log.With(slog.String("service", "knowledge")),
	}
}

// Ingest embeds content and stores it as a new chunk of the bot's base.
func (s *Service) Ingest(ctx context.Context, botID int64, content, source string) (Chunk, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Chunk{}, fmt.Errorf("content is required")
	}

	vector, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return Chunk{}, fmt.Errorf("embed chunk: %w", err)
	}

	row, err := s.queries.CreateKnowledgeChunk(ctx, sqlc.CreateKnowledgeChunkParams{
		BotID:   botID,
		Content: content,
		Source:  source,
	})
	if err != nil {
		return Chunk{}, fmt.Errorf("store chunk: %w", err)
	}

	if err := s.store.Upsert(ctx, botID, row.ID, vector, content); err != nil {
		// Keep rows and vectors in step: drop the orphaned row.
		if _, delErr := s.queries.DeleteKnowledgeChunk(ctx, sqlc.DeleteKnowledgeChunkParams{ID: row.ID, BotID: botID}); delErr != nil {
			s.logger.Error("orphaned knowledge chunk", slog.Int64("chunk_id", row.ID), slog.String("error", delErr.Error()))
		}
		return Chunk{}, err
	}
	return chunkFromRow(row), nil
}

// List returns every chunk of the bot's base.
func (s *Service) List(ctx context.Context, botID int64) ([]Chunk, error) {
	rows, err := s.queries.ListKnowledgeChunks(ctx, botID)
	if err != nil {
		return nil, err
	}
	chunks := make([]Chunk, 0, len(rows))
	for _, row := range rows {
		chunks = append(chunks, chunkFromRow(row))
	}
	return chunks, nil
}

// Delete removes a chunk and its vector.
func (s *Service) Delete(ctx context.Context, botID, chunkID int64) error {
	affected, err := s.queries.DeleteKnowledgeChunk(ctx, sqlc.DeleteKnowledgeChunkParams{ID: chunkID, BotID: botID})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrChunkNotFound
	}
	return s.store.Delete(ctx, chunkID)
}

// DeleteAll clears the bot's entire base.
func (s *Service) DeleteAll(ctx context.Context, botID int64) error {
	if err := s.queries.DeleteKnowledgeChunksByBot(ctx, botID); err != nil {
		return err
	}
	return s.store.DeleteByBot(ctx, botID)
}

// HasKnowledge reports whether the bot has any chunks. Part of ai.Retriever.
func (s *Service) HasKnowledge(ctx context.Context, botID int64) (bool, error) {
	count, err := s.queries.CountKnowledgeChunks(ctx, botID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Search retrieves the closest passages for the vector. Part of ai.Retriever.
func (s *Service) Search(ctx context.Context, botID int64, vector []float32, topK int, minScore float32) ([]ai.Passage, error) {
	return s.store.Search(ctx, botID, vector, topK, minScore)
}

func chunkFromRow(row sqlc.KnowledgeChunk) Chunk {
	return Chunk{
		ID:        row.ID,
		BotID:     row.BotID,
		Content:   row.Content,
		Source:    row.Source,
		CreatedAt: db.TimeOrZero(row.CreatedAt),
	}
}
