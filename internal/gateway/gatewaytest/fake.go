// Package gatewaytest provides a scriptable gateway for tests
package gatewaytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"vocabhero/internal/audio"
	"vocabhero/internal/models"
)

// Fake implements gateway.Gateway. Unset funcs return canned content.
type Fake struct {
	GenerateWordFunc   func(ctx context.Context, level int, category models.WordCategory) (models.Word, error)
	GetHintFunc        func(ctx context.Context, word, partOfSpeech string) (string, error)
	ValidateAnswerFunc func(ctx context.Context, word models.Word, answer models.GameAnswer) (models.ValidationResult, error)
	PronounceFunc      func(ctx context.Context, word string) (*audio.Buffer, error)

	mu    sync.Mutex
	calls map[string]int
}

func (f *Fake) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
}

// Calls returns how many times op was invoked
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Fake) GenerateWord(ctx context.Context, level int, category models.WordCategory) (models.Word, error) {
	f.record("generate_word")
	if f.GenerateWordFunc != nil {
		return f.GenerateWordFunc(ctx, level, category)
	}
	return Word(fmt.Sprintf("Generated%d", level), level), nil
}

func (f *Fake) GetHint(ctx context.Context, word, partOfSpeech string) (string, error) {
	f.record("hint")
	if f.GetHintFunc != nil {
		return f.GetHintFunc(ctx, word, partOfSpeech)
	}
	return "It starts with " + word[:1], nil
}

func (f *Fake) ValidateAnswer(ctx context.Context, word models.Word, answer models.GameAnswer) (models.ValidationResult, error) {
	f.record("validate_answer")
	if f.ValidateAnswerFunc != nil {
		return f.ValidateAnswerFunc(ctx, word, answer)
	}
	return Result(85), nil
}

func (f *Fake) Pronounce(ctx context.Context, word string) (*audio.Buffer, error) {
	f.record("pronounce")
	if f.PronounceFunc != nil {
		return f.PronounceFunc(ctx, word)
	}
	return audio.DecodePCM16(make([]byte, 480), audio.DefaultSampleRate, audio.DefaultChannels)
}

// Word builds a fully populated generated word
func Word(text string, level int) models.Word {
	return models.Word{
		ID:              uuid.NewString(),
		Word:            text,
		Definition:      "A definition of " + text,
		PartOfSpeech:    "Adjective",
		Synonyms:        []string{"alpha", "beta"},
		Antonyms:        []string{"gamma"},
		ExampleSentence: "The " + text + " example.",
		Level:           level,
	}
}

// Result builds a grading result with the given score
func Result(score int) models.ValidationResult {
	return models.ValidationResult{
		IsCorrect: score > 80,
		Score:     score,
		Feedback:  "Nice try",
	}
}
