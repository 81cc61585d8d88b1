// Package knowledge manages per-bot knowledge bases: chunk metadata in
// Postgres and embedding vectors in Qdrant.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"github.com/deskrelay/deskrelay/internal/ai"
	"github.com/deskrelay/deskrelay/internal/config"
)

// Store holds embedding vectors in a Qdrant collection. Point ids mirror
// chunk ids; the bot id lives in the payload for filtered search.
type Store struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

// NewStore connects to Qdrant and ensures the collection exists with the
// given vector dimensionality.
func NewStore(ctx context.Context, log *slog.Logger, cfg config.QdrantConfig, dims int) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}

	exists, err := client.CollectionExists(ctx, cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("qdrant collection check: %w", err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: cfg.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dims),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant create collection: %w", err)
		}
	}

	return &Store{
		client:     client,
		collection: cfg.Collection,
		logger:     log.With(slog.String("service", "knowledge_store")),
	}, nil
}

// Close releases the underlying gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Upsert stores the vector for a chunk.
func (s *Store) Upsert(ctx context.Context, botID, chunkID int64, vector []float32, content string) error {
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDNum(uint64(chunkID)),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"bot_id":  botID,
				"content": content,
			}),
		}},
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// Delete removes one chunk's vector.
func (s *Store) Delete(ctx context.Context, chunkID int64) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDNum(uint64(chunkID))),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete: %w", err)
	}
	return nil
}

// DeleteByBot removes every vector of a bot's knowledge base.
func (s *Store) DeleteByBot(ctx context.Context, botID int64) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatchInt("bot_id", botID)},
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete by bot: %w", err)
	}
	return nil
}

// Search returns the bot's passages closest to the vector, best first,
// cut off at minScore.
func (s *Store) Search(ctx context.Context, botID int64, vector []float32, topK int, minScore float32) ([]ai.Passage, error) {
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		ScoreThreshold: qdrant.PtrOf(minScore),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatchInt("bot_id", botID)},
		},
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	passages := make([]ai.Passage, 0, len(points))
	for _, p := range points {
		content := ""
		if v, ok := p.Payload["content"]; ok {
			content = v.GetStringValue()
		}
		passages = append(passages, ai.Passage{Content: content, Score: p.Score})
	}
	return passages, nil
}
