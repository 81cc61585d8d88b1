package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	retrievalTopK   = 5
	minSimilarity   = 0.3
	confidenceFloor = 0.35
)

const systemPromptHeader = `You are a customer support assistant. Answer the customer's last message using the instructions and the knowledge context below. Keep the reply short and direct.`

// AnswerRequest carries everything the pipeline needs for one attempt.
type AnswerRequest struct {
	BotID        int64
	Instructions string
	History      []ChatMessage
	Question     string
}

// Service runs the auto-answer pipeline: retrieve knowledge when the bot has
// any, generate, and gate the result on the retrieval score.
type Service struct {
	llm       LLM
	embedder  Embedder
	retriever Retriever
	logger    *slog.Logger
}

// NewService creates the answer service.
func NewService(log *slog.Logger, llm LLM, embedder Embedder, retriever Retriever) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		llm:       llm,
		embedder:  embedder,
		retriever: retriever,
		logger:    log.With(slog.String("service", "ai")),
	}
}

// Answer produces a reply decision for the question. A declined Answer means
// the bot should hand over to an operator; an error means the provider was
// unreachable and the dialog should escalate with a note.
//
// A bot with neither instructions nor knowledge answers from history alone,
// with no gate, so a freshly created bot is usable before setup. Only a
// knowledge-backed answer is gated, and the gate is the top retrieval score:
// the model has no say in its own confidence.
func (s *Service) Answer(ctx context.Context, req AnswerRequest) (Answer, error) {
	hasKnowledge := false
	if s.retriever != nil {
		var err error
		hasKnowledge, err = s.retriever.HasKnowledge(ctx, req.BotID)
		if err != nil {
			return Answer{}, fmt.Errorf("%w: knowledge lookup: %v", ErrUnavailable, err)
		}
	}

	var passages []Passage
	if hasKnowledge {
		vector, err := s.embedder.Embed(ctx, req.Question)
		if err != nil {
			return Answer{}, err
		}
		passages, err = s.retriever.Search(ctx, req.BotID, vector, retrievalTopK, minSimilarity)
		if err != nil {
			return Answer{}, fmt.Errorf("%w: knowledge search: %v", ErrUnavailable, err)
		}
		// Nothing in the knowledge base matches the question, so an answer
		// would be a guess. Hand over instead of calling the model.
		if len(passages) == 0 {
			return Answer{Declined: true, Reason: DeclineNoKnowledge}, nil
		}
	}

	raw, err := s.llm.Complete(ctx, buildMessages(req, passages))
	if err != nil {
		return Answer{}, err
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return Answer{Declined: true, Reason: DeclineByModel}, nil
	}

	if hasKnowledge {
		confidence := topScore(passages)
		if confidence < confidenceFloor {
			return Answer{Declined: true, Reason: DeclineLowConfidence, Confidence: confidence}, nil
		}
		return Answer{Text: text, Confidence: confidence}, nil
	}
	return Answer{Text: text}, nil
}

// topScore is the best retrieval score among the passages that entered the
// prompt. Results arrive ranked, but ranking is the store's concern.
func topScore(passages []Passage) float64 {
	top := 0.0
	for _, p := range passages {
		if float64(p.Score) > top {
			top = float64(p.Score)
		}
	}
	return top
}

func buildMessages(req AnswerRequest, passages []Passage) []ChatMessage {
	var sb strings.Builder
	sb.WriteString(systemPromptHeader)
	if instructions := strings.TrimSpace(req.Instructions); instructions != "" {
		sb.WriteString("\n\nInstructions:\n")
		sb.WriteString(instructions)
	}
	if len(passages) > 0 {
		sb.WriteString("\n\nKnowledge context:")
		for _, p := range passages {
			sb.WriteString("\n- ")
			sb.WriteString(p.Content)
		}
	}

	messages := make([]ChatMessage, 0, len(req.History)+2)
	messages = append(messages, ChatMessage{Role: RoleSystem, Content: sb.String()})
	messages = append(messages, req.History...)
	messages = append(messages, ChatMessage{Role: RoleUser, Content: req.Question})
	return messages
}
