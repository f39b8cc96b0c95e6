package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"vocabhero/internal/audio"
	"vocabhero/internal/metrics"
	"vocabhero/internal/models"
)

type BreakerSettings struct {
	// MaxFailures consecutive remote failures open the breaker
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again
	OpenTimeout time.Duration
}

// BreakerGateway fails fast while the provider keeps failing. It never retries.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerGateway(next Gateway, name string, settings BreakerSettings, log *zap.Logger) *BreakerGateway {
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}
	if log == nil {
		log = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("ai provider breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			open := 0.0
			if to == gobreaker.StateOpen {
				open = 1
			}
			metrics.BreakerState.WithLabelValues(name).Set(open)
		},
	})
	return &BreakerGateway{next: next, cb: cb}
}

// countsAsSuccess keeps caller cancellations and provider content problems
// from tripping the breaker; only transport and API failures count.
func countsAsSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrContentShape) ||
		errors.Is(err, ErrAudioUnavailable)
}

func (b *BreakerGateway) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerGateway) GenerateWord(ctx context.Context, level int, category models.WordCategory) (models.Word, error) {
	return execute(b, OpGenerateWord, func() (models.Word, error) {
		return b.next.GenerateWord(ctx, level, category)
	})
}

func (b *BreakerGateway) GetHint(ctx context.Context, word, partOfSpeech string) (string, error) {
	return execute(b, OpHint, func() (string, error) {
		return b.next.GetHint(ctx, word, partOfSpeech)
	})
}

func (b *BreakerGateway) ValidateAnswer(ctx context.Context, word models.Word, answer models.GameAnswer) (models.ValidationResult, error) {
	return execute(b, OpValidateAnswer, func() (models.ValidationResult, error) {
		return b.next.ValidateAnswer(ctx, word, answer)
	})
}

func (b *BreakerGateway) Pronounce(ctx context.Context, word string) (*audio.Buffer, error) {
	return execute(b, OpPronounce, func() (*audio.Buffer, error) {
		return b.next.Pronounce(ctx, word)
	})
}

func execute[T any](b *BreakerGateway, op Op, fn func() (T, error)) (T, error) {
	var zero T
	res, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, remoteErr(op, err)
	}
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}
