// Package ai produces automatic answers for incoming dialog messages. It
// combines bot instructions, retrieved knowledge passages, and a chat
// completion model, and decides whether the answer is safe to send.
package ai

import (
	"context"
	"errors"
)

// ErrUnavailable marks transport or provider failures. Routing treats it
// differently from a decline: the dialog escalates with a system note instead
// of silently waiting.
var ErrUnavailable = errors.New("answer provider unavailable")

// ChatMessage is one turn of model context.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Answer is the outcome of an answer attempt.
type Answer struct {
	Text       string
	Confidence float64
	Declined   bool
	Reason     string
}

// Decline reasons.
const (
	DeclineNoKnowledge   = "no_relevant_knowledge"
	DeclineByModel       = "model_declined"
	DeclineLowConfidence = "low_confidence"
)

// LLM generates a completion for the given context.
type LLM interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// Embedder turns text into a vector for retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Passage is one retrieved knowledge fragment.
type Passage struct {
	Content string
	Score   float32
}

// Retriever searches a bot's knowledge base.
type Retriever interface {
	HasKnowledge(ctx context.Context, botID int64) (bool, error)
	Search(ctx context.Context, botID int64, vector []float32, topK int, minScore float32) ([]Passage, error)
}
