package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"vocabhero/internal/audio"
	"vocabhero/internal/config"
	"vocabhero/internal/gateway"
	"vocabhero/internal/models"
	"vocabhero/internal/store"
)

// WordService handles the shared word bank: listing, starring, mastery
// overrides, fetching new words and pronunciation
type WordService struct {
	store      *store.Store
	gateway    gateway.Gateway
	player     *audio.Player
	cache      audio.Cache
	log        *zap.Logger
	timeout    time.Duration
	sampleRate int

	speech singleflight.Group
	intn   func(n int) int

	genMu      sync.Mutex
	generating map[string]bool
}

func NewWordService(st *store.Store, gw gateway.Gateway, player *audio.Player, cache audio.Cache, cfg config.AIConfig, log *zap.Logger) *WordService {
	if cache == nil {
		cache = audio.NopCache{}
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}
	return &WordService{
		store:      st,
		gateway:    gw,
		player:     player,
		cache:      cache,
		log:        log,
		timeout:    cfg.Timeout,
		sampleRate: cfg.SampleRate,
		intn:       rand.IntN,
		generating: make(map[string]bool),
	}
}

// List returns the words matching filter whose text contains search
func (s *WordService) List(ctx context.Context, filter models.WordFilter, search string) []models.Word {
	search = strings.TrimSpace(search)
	bank := s.store.LoadWordBank(ctx)
	out := make([]models.Word, 0, len(bank))
	for i := range bank {
		if filter.Matches(&bank[i], search) {
			out = append(out, bank[i])
		}
	}
	return out
}

func (s *WordService) Get(ctx context.Context, id string) (models.Word, error) {
	for _, w := range s.store.LoadWordBank(ctx) {
		if w.ID == id {
			return w, nil
		}
	}
	return models.Word{}, store.ErrWordNotFound
}

func (s *WordService) ToggleStar(ctx context.Context, id string) (models.Word, error) {
	return s.store.UpdateWord(ctx, id, func(w *models.Word) error {
		w.IsStarred = !w.IsStarred
		return nil
	})
}

// MarkMastered sets the word straight to the top mastery level
func (s *WordService) MarkMastered(ctx context.Context, id string) (models.Word, error) {
	return s.store.UpdateWord(ctx, id, func(w *models.Word) error {
		w.MasteryLevel = models.MaxMastery
		return nil
	})
}

// MarkForReview stars the word so it joins the review pool
func (s *WordService) MarkForReview(ctx context.Context, id string) (models.Word, error) {
	return s.store.UpdateWord(ctx, id, func(w *models.Word) error {
		w.IsStarred = true
		return nil
	})
}

// FetchNew generates a word for the active profile's level, themed on one
// of its selected categories, and puts it at the front of the bank
func (s *WordService) FetchNew(ctx context.Context) (models.Word, error) {
	p := s.store.LoadActiveProfile(ctx)

	var category models.WordCategory
	if n := len(p.SelectedCategories); n > 0 {
		category = p.SelectedCategories[s.intn(n)]
	}
	return s.generate(ctx, p.ID, p.Level, category)
}

// generate asks the gateway for a word and prepends it to the bank. Only
// one generation per profile runs at a time; a result that arrives after
// ctx is done is dropped.
func (s *WordService) generate(ctx context.Context, profileID string, level int, category models.WordCategory) (models.Word, error) {
	s.genMu.Lock()
	if s.generating[profileID] {
		s.genMu.Unlock()
		return models.Word{}, ErrGenerateInProgress
	}
	s.generating[profileID] = true
	s.genMu.Unlock()

	defer func() {
		s.genMu.Lock()
		delete(s.generating, profileID)
		s.genMu.Unlock()
	}()

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	w, err := s.gateway.GenerateWord(callCtx, level, category)
	if err != nil {
		return models.Word{}, fmt.Errorf("failed to generate word: %w", err)
	}
	if err := ctx.Err(); err != nil {
		s.log.Debug("discarding generated word for abandoned request", zap.String("word", w.Word))
		return models.Word{}, err
	}

	w.Normalize()
	err = s.store.UpdateWordBank(ctx, func(bank []models.Word) ([]models.Word, error) {
		return append([]models.Word{w}, bank...), nil
	})
	if err != nil {
		return models.Word{}, fmt.Errorf("failed to save generated word: %w", err)
	}
	s.log.Info("added generated word", zap.String("word", w.Word), zap.Int("level", w.Level), zap.String("category", string(category)))
	return w, nil
}

// Pronounce plays the word with the given id through sink
func (s *WordService) Pronounce(ctx context.Context, id string, sink audio.Sink) error {
	w, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.PronounceText(ctx, w.Word, sink)
}

// PronounceText plays arbitrary word text through sink
func (s *WordService) PronounceText(ctx context.Context, text string, sink audio.Sink) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ValidationError{Field: "word", Message: "word is required"}
	}
	buf, err := s.speechFor(ctx, text)
	if err != nil {
		return err
	}
	return s.player.Play(ctx, buf, sink)
}

// speechFor serves cached audio when possible and otherwise shares one
// provider call between concurrent requests for the same word
func (s *WordService) speechFor(ctx context.Context, text string) (*audio.Buffer, error) {
	key := audio.CacheKey(text)

	if data, ok, err := s.cache.Get(ctx, text); err != nil {
		s.log.Warn("audio cache read failed", zap.String("word", text), zap.Error(err))
	} else if ok {
		if buf, err := audio.DecodePCM16(data, s.sampleRate, audio.DefaultChannels); err == nil {
			return buf, nil
		}
		s.log.Warn("ignoring unreadable cached audio", zap.String("word", text))
	}

	// The shared call outlives any single caller
	ch := s.speech.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := s.withTimeout(context.WithoutCancel(ctx))
		defer cancel()

		buf, err := s.gateway.Pronounce(callCtx, text)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Put(callCtx, text, buf.PCM16()); err != nil {
			s.log.Warn("audio cache write failed", zap.String("word", text), zap.Error(err))
		}
		return buf, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("failed to fetch pronunciation: %w", res.Err)
		}
		return res.Val.(*audio.Buffer), nil
	}
}

func (s *WordService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
