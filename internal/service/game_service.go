package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vocabhero/internal/gateway"
	"vocabhero/internal/models"
	"vocabhero/internal/store"
)

// ReviewChance is the probability of drawing from the review pool rather
// than generating a new word when the pool is not empty
const ReviewChance = 0.7

// GameService runs timed word challenges. Rounds live in memory, one per
// profile; only their outcomes are persisted.
type GameService struct {
	store   *store.Store
	gateway gateway.Gateway
	words   *WordService
	log     *zap.Logger

	mu     sync.Mutex
	rounds map[string]*roundState
	scores map[string]int

	now  func() time.Time
	roll func() float64
	intn func(n int) int
}

type roundState struct {
	round      models.Round
	hintBusy   bool
	validating bool
}

func NewGameService(st *store.Store, gw gateway.Gateway, words *WordService, log *zap.Logger) *GameService {
	return &GameService{
		store:   st,
		gateway: gw,
		words:   words,
		log:     log,
		rounds:  make(map[string]*roundState),
		scores:  make(map[string]int),
		now:     time.Now,
		roll:    rand.Float64,
		intn:    rand.IntN,
	}
}

// StartRound begins a challenge for the active profile. With reviewWordID
// the round uses that word; otherwise it usually draws a starred or
// practised word and falls back to generating a new one at the profile's
// level.
func (s *GameService) StartRound(ctx context.Context, reviewWordID string) (models.Round, error) {
	p := s.store.LoadActiveProfile(ctx)

	var (
		word   models.Word
		review bool
	)
	if reviewWordID != "" {
		w, err := s.words.Get(ctx, reviewWordID)
		if err != nil {
			return models.Round{}, err
		}
		word, review = w, true
	} else {
		var pool []models.Word
		for _, w := range s.store.LoadWordBank(ctx) {
			if w.InReviewPool() {
				pool = append(pool, w)
			}
		}
		if len(pool) > 0 && s.roll() < ReviewChance {
			word, review = pool[s.intn(len(pool))], true
		} else {
			w, err := s.words.generate(ctx, p.ID, p.Level, "")
			if err != nil {
				return models.Round{}, err
			}
			word = w
		}
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &roundState{round: models.Round{
		ID:           uuid.NewString(),
		ProfileID:    p.ID,
		Word:         word,
		StartedAt:    now,
		Deadline:     now.Add(models.RoundDuration),
		Review:       review,
		SessionScore: s.scores[p.ID],
	}}
	s.rounds[p.ID] = st
	return st.round, nil
}

// Current returns the active profile's round
func (s *GameService) Current(ctx context.Context) (models.Round, error) {
	p := s.store.LoadActiveProfile(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.rounds[p.ID]
	if !ok {
		return models.Round{}, ErrNoActiveRound
	}
	return st.round, nil
}

// Hint returns a clue for the current word. Only one hint request per
// round reaches the provider at a time and the first answer is kept.
func (s *GameService) Hint(ctx context.Context) (string, error) {
	p := s.store.LoadActiveProfile(ctx)

	s.mu.Lock()
	st, ok := s.rounds[p.ID]
	switch {
	case !ok:
		s.mu.Unlock()
		return "", ErrNoActiveRound
	case st.round.Hint != "":
		hint := st.round.Hint
		s.mu.Unlock()
		return hint, nil
	case st.hintBusy:
		s.mu.Unlock()
		return "", ErrHintInProgress
	}
	st.hintBusy = true
	word := st.round.Word
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		st.hintBusy = false
		s.mu.Unlock()
	}()

	callCtx, cancel := s.words.withTimeout(ctx)
	defer cancel()
	hint, err := s.gateway.GetHint(callCtx, word.Word, word.PartOfSpeech)
	if err != nil {
		return "", fmt.Errorf("failed to get hint: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	st.round.Hint = hint
	s.mu.Unlock()
	return hint, nil
}

// SubmitResult is the outcome of a graded answer
type SubmitResult struct {
	Round   models.Round            `json:"round"`
	Result  models.ValidationResult `json:"result"`
	Word    models.Word             `json:"word"`
	Profile models.Profile          `json:"profile"`
}

// Submit grades an answer for the current round, raises the word's mastery
// on a strong score and folds the score into the profile's stats. Only one
// answer per round is graded at a time. Nothing is written when grading
// fails or the caller has gone away, and the round stays open when the
// outcome cannot be saved.
func (s *GameService) Submit(ctx context.Context, answer models.GameAnswer) (SubmitResult, error) {
	p := s.store.LoadActiveProfile(ctx)

	s.mu.Lock()
	st, ok := s.rounds[p.ID]
	switch {
	case !ok:
		s.mu.Unlock()
		return SubmitResult{}, ErrNoActiveRound
	case st.round.Finished():
		s.mu.Unlock()
		return SubmitResult{}, ErrRoundFinished
	case st.validating:
		s.mu.Unlock()
		return SubmitResult{}, ErrValidationInProgress
	case answer.WordID != "" && answer.WordID != st.round.Word.ID:
		s.mu.Unlock()
		return SubmitResult{}, models.ValidationError{Field: "wordId", Message: "answer is for a different word"}
	}
	st.validating = true
	word := st.round.Word
	submittedAt := s.now()
	late := submittedAt.After(st.round.Deadline)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		st.validating = false
		s.mu.Unlock()
	}()

	answer.WordID = word.ID
	callCtx, cancel := s.words.withTimeout(ctx)
	defer cancel()
	res, err := s.gateway.ValidateAnswer(callCtx, word, answer)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("failed to validate answer: %w", err)
	}
	if err := ctx.Err(); err != nil {
		s.log.Debug("discarding grade for abandoned request", zap.String("word", word.Word))
		return SubmitResult{}, err
	}

	s.mu.Lock()
	replaced := s.rounds[p.ID] != st
	s.mu.Unlock()
	if replaced {
		return SubmitResult{}, ErrRoundReplaced
	}

	becameMastered := false
	updatedWord, err := s.store.UpdateWord(ctx, word.ID, func(w *models.Word) error {
		before := w.IsMastered()
		w.ApplyScore(res.Score)
		becameMastered = !before && w.IsMastered()
		return nil
	})
	switch {
	case errors.Is(err, store.ErrWordNotFound):
		s.log.Warn("graded word is no longer in the bank", zap.String("word_id", word.ID))
		updatedWord = word
	case err != nil:
		return SubmitResult{}, fmt.Errorf("failed to update word mastery: %w", err)
	}

	profile, err := s.store.UpdateProfile(ctx, p.ID, func(pp *models.Profile) error {
		pp.Stats.RecordChallenge(res.Score, submittedAt)
		if becameMastered {
			pp.Stats.MasteredWords++
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("failed to update stats: %w", err)
	}

	// The round only closes once the outcome is persisted
	s.mu.Lock()
	s.scores[p.ID] += res.Score
	st.round.Result = &res
	st.round.Late = late
	st.round.SessionScore = s.scores[p.ID]
	round := st.round
	s.mu.Unlock()

	s.log.Info("graded answer",
		zap.String("profile_id", p.ID),
		zap.String("word", word.Word),
		zap.Int("score", res.Score),
		zap.Bool("late", late))

	return SubmitResult{Round: round, Result: res, Word: updatedWord, Profile: profile}, nil
}

// Abandon drops the active profile's round
func (s *GameService) Abandon(ctx context.Context) {
	p := s.store.LoadActiveProfile(ctx)
	s.mu.Lock()
	delete(s.rounds, p.ID)
	s.mu.Unlock()
}
