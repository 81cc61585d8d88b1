package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/deskrelay/deskrelay/internal/config"
)

// EmbeddingClient talks to an OpenAI-compatible embeddings endpoint.
type EmbeddingClient struct {
	cfg    config.EmbeddingsConfig
	logger *slog.Logger
	client *http.Client
}

// NewEmbeddingClient creates an embeddings client from config.
func NewEmbeddingClient(log *slog.Logger, cfg config.EmbeddingsConfig) *EmbeddingClient {
	if log == nil {
		log = slog.Default()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &EmbeddingClient{
		cfg:    cfg,
		logger: log.With(slog.String("service", "embeddings")),
		client: &http.Client{Timeout: timeout},
	}
}

// Embed returns the vector for text. Failures wrap ErrUnavailable.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, _ := json.Marshal(map[string]any{
		"model": c.cfg.Model,
		"input": []string{text},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: embeddings status %d", ErrUnavailable, resp.StatusCode)
	}

	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode embeddings: %v", ErrUnavailable, err)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("%w: empty embeddings data", ErrUnavailable)
	}
	return out.Data[0].Embedding, nil
}
