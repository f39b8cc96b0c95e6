package gateway

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"vocabhero/internal/audio"
	"vocabhero/internal/metrics"
	"vocabhero/internal/models"
)

// InstrumentedGateway records call counts, latency and failures
type InstrumentedGateway struct {
	next     Gateway
	provider string
	log      *zap.Logger
}

func NewInstrumentedGateway(next Gateway, provider string, log *zap.Logger) *InstrumentedGateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &InstrumentedGateway{next: next, provider: provider, log: log}
}

func (g *InstrumentedGateway) GenerateWord(ctx context.Context, level int, category models.WordCategory) (models.Word, error) {
	start := time.Now()
	w, err := g.next.GenerateWord(ctx, level, category)
	g.observe(OpGenerateWord, start, err, zap.Int("level", level), zap.String("category", string(category)))
	return w, err
}

func (g *InstrumentedGateway) GetHint(ctx context.Context, word, partOfSpeech string) (string, error) {
	start := time.Now()
	hint, err := g.next.GetHint(ctx, word, partOfSpeech)
	g.observe(OpHint, start, err, zap.String("word", word))
	return hint, err
}

func (g *InstrumentedGateway) ValidateAnswer(ctx context.Context, word models.Word, answer models.GameAnswer) (models.ValidationResult, error) {
	start := time.Now()
	res, err := g.next.ValidateAnswer(ctx, word, answer)
	g.observe(OpValidateAnswer, start, err, zap.String("word", word.Word))
	return res, err
}

func (g *InstrumentedGateway) Pronounce(ctx context.Context, word string) (*audio.Buffer, error) {
	start := time.Now()
	buf, err := g.next.Pronounce(ctx, word)
	g.observe(OpPronounce, start, err, zap.String("word", word))
	return buf, err
}

func (g *InstrumentedGateway) observe(op Op, start time.Time, err error, fields ...zap.Field) {
	elapsed := time.Since(start)
	outcome := Outcome(err)
	metrics.GatewayCalls.WithLabelValues(g.provider, string(op), outcome).Inc()
	metrics.GatewayDuration.WithLabelValues(g.provider, string(op)).Observe(elapsed.Seconds())

	fields = append(fields, zap.String("op", string(op)), zap.Duration("elapsed", elapsed))
	switch outcome {
	case "ok":
		g.log.Debug("ai call completed", fields...)
	case "canceled":
		g.log.Debug("ai call abandoned by caller", fields...)
	default:
		g.log.Warn("ai call failed", append(fields, zap.String("outcome", outcome), zap.Error(err))...)
	}
}

// Outcome is the metrics label for a gateway error
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrAudioUnavailable):
		return "audio_unavailable"
	case errors.Is(err, ErrContentShape):
		return "content_shape"
	default:
		return "remote"
	}
}
