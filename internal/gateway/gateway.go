// Package gateway is the single point of contact with the generative AI
// provider. It builds prompts, validates structured responses and turns
// speech payloads into audio buffers.
package gateway

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"vocabhero/internal/audio"
	"vocabhero/internal/config"
	"vocabhero/internal/models"
)

// Gateway generates vocabulary content. Failed calls never touch
// application state; callers decide what to persist.
type Gateway interface {
	// GenerateWord returns a new word with a fresh id and mastery 0.
	// category may be empty.
	GenerateWord(ctx context.Context, level int, category models.WordCategory) (models.Word, error)

	// GetHint returns a short clue. An empty answer becomes FallbackHint.
	GetHint(ctx context.Context, word, partOfSpeech string) (string, error)

	// ValidateAnswer grades an answer against the reference word
	ValidateAnswer(ctx context.Context, word models.Word, answer models.GameAnswer) (models.ValidationResult, error)

	// Pronounce returns mono PCM speech for the word
	Pronounce(ctx context.Context, word string) (*audio.Buffer, error)
}

// New builds the configured provider wrapped in a circuit breaker and
// metrics instrumentation
func New(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (Gateway, error) {
	var (
		provider Gateway
		err      error
	)
	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiGateway(ctx, cfg)
	case "openai":
		provider, err = NewOpenAIGateway(cfg)
	default:
		return nil, fmt.Errorf("unknown ai provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	breaker := NewBreakerGateway(provider, cfg.Provider, BreakerSettings{
		MaxFailures: cfg.BreakerFailures,
		OpenTimeout: cfg.BreakerTimeout,
	}, log)
	return NewInstrumentedGateway(breaker, cfg.Provider, log), nil
}
