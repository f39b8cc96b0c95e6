package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vocabhero/internal/audio"
	"vocabhero/internal/config"
	"vocabhero/internal/gateway"
	"vocabhero/internal/gateway/gatewaytest"
	"vocabhero/internal/models"
	"vocabhero/internal/storage"
	"vocabhero/internal/store"
)

type testServices struct {
	store    *store.Store
	fake     *gatewaytest.Fake
	profiles *ProfileService
	words    *WordService
	game     *GameService
	progress *ProgressService
}

func newTestServices(t *testing.T, cache audio.Cache) *testServices {
	t.Helper()
	log := zap.NewNop()
	st := store.New(storage.NewMemoryBackend(), log)
	fake := &gatewaytest.Fake{}
	player := audio.NewPlayer(audio.DefaultSampleRate, log)
	t.Cleanup(player.Close)

	words := NewWordService(st, fake, player, cache, config.AIConfig{
		Timeout:    time.Second,
		SampleRate: audio.DefaultSampleRate,
	}, log)
	return &testServices{
		store:    st,
		fake:     fake,
		profiles: NewProfileService(st, log),
		words:    words,
		game:     NewGameService(st, fake, words, log),
		progress: NewProgressService(st, log),
	}
}

func findWord(t *testing.T, st *store.Store, id string) models.Word {
	t.Helper()
	for _, w := range st.LoadWordBank(context.Background()) {
		if w.ID == id {
			return w
		}
	}
	t.Fatalf("word %s not in bank", id)
	return models.Word{}
}

func TestProfileSwitch(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	created, err := s.profiles.Create(ctx, NewProfile{Name: " Priya ", Level: 6, AvatarColor: "Sky Blue"})
	require.NoError(t, err)
	assert.Equal(t, "Priya", created.Name)
	assert.Equal(t, "60a5fa", models.AvatarColorHex(created.Avatar))
	assert.Equal(t, created.ID, s.profiles.Active(ctx).ID, "a new profile becomes active")

	p, err := s.profiles.Switch(ctx, store.DefaultProfileID)
	require.NoError(t, err)
	assert.Equal(t, "Alex Hero", p.Name)

	_, err = s.profiles.Switch(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrProfileNotFound)
	assert.Equal(t, store.DefaultProfileID, s.profiles.Active(ctx).ID)

	roster, activeID := s.profiles.Roster(ctx)
	assert.Len(t, roster, 2)
	assert.Equal(t, store.DefaultProfileID, activeID)
}

func TestProfileCreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    NewProfile
		field string
	}{
		{name: "blank name", in: NewProfile{Name: ""}, field: "name"},
		{name: "bad level", in: NewProfile{Name: "Sam", Level: 9}, field: "level"},
		{name: "bad colour", in: NewProfile{Name: "Sam", AvatarColor: "Beige"}, field: "avatarColor"},
		{name: "bad category", in: NewProfile{Name: "Sam", Categories: []models.WordCategory{"Rude Words"}}, field: "selectedCategories"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServices(t, nil)
			_, err := s.profiles.Create(context.Background(), tt.in)
			var verr models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			roster, _ := s.profiles.Roster(context.Background())
			assert.Len(t, roster, 1)
		})
	}
}

func TestProfileUpdate(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	name := "Alexandra"
	level := 6
	p, err := s.profiles.Update(ctx, store.DefaultProfileID, ProfileUpdate{Name: &name, Level: &level})
	require.NoError(t, err)
	assert.Equal(t, "Alexandra", p.Name)
	assert.Equal(t, 6, p.Level)
	assert.Equal(t, models.AvatarURL("Alexandra", "f87171"), p.Avatar)

	color := "#a78bfa"
	p, err = s.profiles.Update(ctx, store.DefaultProfileID, ProfileUpdate{AvatarColor: &color})
	require.NoError(t, err)
	assert.Equal(t, "a78bfa", models.AvatarColorHex(p.Avatar))

	bad := 3
	_, err = s.profiles.Update(ctx, store.DefaultProfileID, ProfileUpdate{Level: &bad})
	var verr models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 6, s.profiles.Active(ctx).Level)

	_, err = s.profiles.Update(ctx, "missing", ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, store.ErrProfileNotFound)
}

func TestProfileTasks(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()
	id := store.DefaultProfileID

	task, err := s.profiles.ToggleTask(ctx, id, "t1")
	require.NoError(t, err)
	assert.True(t, task.IsCompleted)
	task, err = s.profiles.ToggleTask(ctx, id, "t1")
	require.NoError(t, err)
	assert.False(t, task.IsCompleted, "toggling twice restores the task")

	added, err := s.profiles.AddTask(ctx, id, "  Read a chapter ")
	require.NoError(t, err)
	assert.Equal(t, "Read a chapter", added.Task)
	assert.NotEmpty(t, added.ID)
	assert.Len(t, s.profiles.Active(ctx).StudyPlan, 3)

	_, err = s.profiles.AddTask(ctx, id, "   ")
	var verr models.ValidationError
	assert.ErrorAs(t, err, &verr)

	p, err := s.profiles.DeleteTask(ctx, id, "t2")
	require.NoError(t, err)
	require.Len(t, p.StudyPlan, 2)
	assert.Equal(t, "t1", p.StudyPlan[0].ID)

	_, err = s.profiles.DeleteTask(ctx, id, "t2")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = s.profiles.ToggleTask(ctx, id, "nope")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestProfileCategoriesAndScheme(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	p, err := s.profiles.ToggleCategory(ctx, store.DefaultProfileID, models.CategoryIntelligentWords)
	require.NoError(t, err)
	assert.False(t, p.HasCategory(models.CategoryIntelligentWords))

	_, err = s.profiles.ToggleCategory(ctx, store.DefaultProfileID, "Spooky Words")
	var verr models.ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.Equal(t, models.DefaultColorScheme, s.profiles.ColorScheme(ctx).Name)
	scheme, err := s.profiles.SetColorScheme(ctx, "magic purple")
	require.NoError(t, err)
	assert.Equal(t, "Magic Purple", scheme.Name)
	assert.Equal(t, "Magic Purple", s.profiles.ColorScheme(ctx).Name)

	_, err = s.profiles.SetColorScheme(ctx, "Neon")
	assert.ErrorAs(t, err, &verr)
}

func TestWordStarAndMastery(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	w, err := s.words.ToggleStar(ctx, "2")
	require.NoError(t, err)
	assert.True(t, w.IsStarred)
	w, err = s.words.ToggleStar(ctx, "2")
	require.NoError(t, err)
	assert.False(t, w.IsStarred, "double toggle restores the star")

	w, err = s.words.MarkMastered(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, models.MaxMastery, w.MasteryLevel)

	w, err = s.words.MarkForReview(ctx, "2")
	require.NoError(t, err)
	assert.True(t, w.IsStarred)

	_, err = s.words.ToggleStar(ctx, "404")
	assert.ErrorIs(t, err, store.ErrWordNotFound)
	_, err = s.words.Get(ctx, "404")
	assert.ErrorIs(t, err, store.ErrWordNotFound)
}

func TestWordList(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	tests := []struct {
		filter models.WordFilter
		search string
		want   []string
	}{
		{filter: models.FilterAll, want: []string{"Benevolent", "Accumulate"}},
		{filter: models.FilterStarred, want: []string{"Benevolent"}},
		{filter: models.FilterLearning, want: []string{"Accumulate"}},
		{filter: models.FilterMastered, want: []string{}},
		{filter: models.FilterAll, search: " ACCU ", want: []string{"Accumulate"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter)+"/"+tt.search, func(t *testing.T) {
			got := []string{}
			for _, w := range s.words.List(ctx, tt.filter, tt.search) {
				got = append(got, w.Word)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchNewPrependsToBank(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	var gotCategory models.WordCategory
	var gotLevel int
	s.fake.GenerateWordFunc = func(_ context.Context, level int, category models.WordCategory) (models.Word, error) {
		gotLevel, gotCategory = level, category
		return gatewaytest.Word("Gregarious", level), nil
	}
	s.words.intn = func(int) int { return 1 }

	w, err := s.words.FetchNew(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Gregarious", w.Word)
	assert.Equal(t, 5, gotLevel)
	assert.Equal(t, models.CategoryExcitingWords, gotCategory)

	bank := s.store.LoadWordBank(ctx)
	require.Len(t, bank, 3)
	assert.Equal(t, w.ID, bank[0].ID)
	assert.Equal(t, 0, bank[0].MasteryLevel)
}

func TestFetchNewIntoEmptyBank(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()
	require.NoError(t, s.store.SaveWordBank(ctx, []models.Word{}))

	w, err := s.words.FetchNew(ctx)
	require.NoError(t, err)

	bank := s.store.LoadWordBank(ctx)
	require.Len(t, bank, 1)
	assert.Equal(t, w.ID, bank[0].ID)
}

func TestFetchNewFailureLeavesBank(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	s.fake.GenerateWordFunc = func(context.Context, int, models.WordCategory) (models.Word, error) {
		return models.Word{}, &gateway.GenerationError{Op: gateway.OpGenerateWord, Kind: gateway.KindContentShape, Err: errors.New("missing word")}
	}
	_, err := s.words.FetchNew(ctx)
	assert.ErrorIs(t, err, gateway.ErrContentShape)
	assert.Len(t, s.store.LoadWordBank(ctx), 2)
}

func TestFetchNewDiscardedAfterCancel(t *testing.T) {
	s := newTestServices(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	s.fake.GenerateWordFunc = func(_ context.Context, level int, _ models.WordCategory) (models.Word, error) {
		cancel()
		return gatewaytest.Word("Late", level), nil
	}
	_, err := s.words.FetchNew(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, s.store.LoadWordBank(context.Background()), 2)
}

func TestFetchNewSingleInFlight(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	s.fake.GenerateWordFunc = func(_ context.Context, level int, _ models.WordCategory) (models.Word, error) {
		close(started)
		<-release
		return gatewaytest.Word("Resilient", level), nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.words.FetchNew(ctx)
		done <- err
	}()
	<-started

	_, err := s.words.FetchNew(ctx)
	assert.ErrorIs(t, err, ErrGenerateInProgress)

	// a round that needs a fresh word waits its turn too
	s.game.roll = func() float64 { return 1 }
	_, err = s.game.StartRound(ctx, "")
	assert.ErrorIs(t, err, ErrGenerateInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, s.fake.Calls("generate_word"))
	assert.Len(t, s.store.LoadWordBank(ctx), 3)

	// the guard is released once the call finishes
	s.fake.GenerateWordFunc = nil
	_, err = s.words.FetchNew(ctx)
	require.NoError(t, err)
}

func TestPronounce(t *testing.T) {
	cache, err := audio.NewDiskCache(t.TempDir())
	require.NoError(t, err)
	s := newTestServices(t, cache)
	ctx := context.Background()

	sink := &audio.DiscardSink{}
	require.NoError(t, s.words.Pronounce(ctx, "1", sink))
	require.Len(t, sink.Played(), 1)
	assert.Equal(t, 240, sink.Played()[0].Frames())

	// served from the cache the second time
	require.NoError(t, s.words.PronounceText(ctx, "Benevolent", sink))
	assert.Len(t, sink.Played(), 2)
	assert.Equal(t, 1, s.fake.Calls("pronounce"))

	files, err := cache.Files()
	require.NoError(t, err)
	assert.Len(t, files, 1)

	err = s.words.PronounceText(ctx, "  ", sink)
	var verr models.ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.ErrorIs(t, s.words.Pronounce(ctx, "404", sink), store.ErrWordNotFound)
}

func TestPronounceMissingAudio(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()
	before := s.store.LoadWordBank(ctx)

	s.fake.PronounceFunc = func(_ context.Context, word string) (*audio.Buffer, error) {
		return nil, &gateway.AudioUnavailableError{Word: word}
	}
	sink := &audio.DiscardSink{}
	err := s.words.Pronounce(ctx, "2", sink)
	assert.ErrorIs(t, err, gateway.ErrAudioUnavailable)
	assert.Empty(t, sink.Played())
	assert.Equal(t, before, s.store.LoadWordBank(ctx))
}

func TestPronounceSharesConcurrentCalls(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	release := make(chan struct{})
	s.fake.PronounceFunc = func(context.Context, string) (*audio.Buffer, error) {
		<-release
		return audio.DecodePCM16(make([]byte, 8), audio.DefaultSampleRate, 1)
	}

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.words.PronounceText(ctx, "Accumulate", &audio.DiscardSink{})
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, s.fake.Calls("pronounce"), 5)
	assert.GreaterOrEqual(t, s.fake.Calls("pronounce"), 1)
}

func TestStartRound(t *testing.T) {
	t.Run("review pool pick", func(t *testing.T) {
		s := newTestServices(t, nil)
		s.game.roll = func() float64 { return 0.1 }
		s.game.intn = func(int) int { return 0 }

		r, err := s.game.StartRound(context.Background(), "")
		require.NoError(t, err)
		assert.True(t, r.Review)
		assert.Equal(t, "Benevolent", r.Word.Word)
		assert.Equal(t, 0, s.fake.Calls("generate_word"))
		assert.Equal(t, models.RoundDuration, r.Deadline.Sub(r.StartedAt))
	})

	t.Run("generates when the roll misses", func(t *testing.T) {
		s := newTestServices(t, nil)
		s.game.roll = func() float64 { return 0.9 }

		r, err := s.game.StartRound(context.Background(), "")
		require.NoError(t, err)
		assert.False(t, r.Review)
		assert.Equal(t, "Generated5", r.Word.Word)
		assert.Equal(t, r.Word.ID, s.store.LoadWordBank(context.Background())[0].ID)
	})

	t.Run("generates when the pool is empty", func(t *testing.T) {
		s := newTestServices(t, nil)
		_, err := s.words.ToggleStar(context.Background(), "1")
		require.NoError(t, err)
		s.game.roll = func() float64 { return 0 }

		r, err := s.game.StartRound(context.Background(), "")
		require.NoError(t, err)
		assert.False(t, r.Review)
		assert.Equal(t, 1, s.fake.Calls("generate_word"))
	})

	t.Run("explicit review word", func(t *testing.T) {
		s := newTestServices(t, nil)
		r, err := s.game.StartRound(context.Background(), "2")
		require.NoError(t, err)
		assert.True(t, r.Review)
		assert.Equal(t, "Accumulate", r.Word.Word)

		_, err = s.game.StartRound(context.Background(), "404")
		assert.ErrorIs(t, err, store.ErrWordNotFound)
	})

	t.Run("generation failure", func(t *testing.T) {
		s := newTestServices(t, nil)
		s.game.roll = func() float64 { return 1 }
		s.fake.GenerateWordFunc = func(context.Context, int, models.WordCategory) (models.Word, error) {
			return models.Word{}, &gateway.GenerationError{Op: gateway.OpGenerateWord, Kind: gateway.KindRemote, Err: errors.New("503")}
		}
		_, err := s.game.StartRound(context.Background(), "")
		assert.ErrorIs(t, err, gateway.ErrRemote)

		_, err = s.game.Current(context.Background())
		assert.ErrorIs(t, err, ErrNoActiveRound)
	})
}

func TestSubmitScoring(t *testing.T) {
	tests := []struct {
		name         string
		score        int
		wantMastery  int
		wantAccuracy int
	}{
		{name: "strong answer", score: 85, wantMastery: 1, wantAccuracy: 87},
		{name: "weak answer", score: 50, wantMastery: 0, wantAccuracy: 69},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServices(t, nil)
			ctx := context.Background()
			s.fake.ValidateAnswerFunc = func(context.Context, models.Word, models.GameAnswer) (models.ValidationResult, error) {
				return gatewaytest.Result(tt.score), nil
			}

			_, err := s.game.StartRound(ctx, "2")
			require.NoError(t, err)
			res, err := s.game.Submit(ctx, models.GameAnswer{Definition: "to gather"})
			require.NoError(t, err)

			assert.Equal(t, tt.score, res.Result.Score)
			assert.Equal(t, tt.wantMastery, res.Word.MasteryLevel)
			assert.Equal(t, tt.wantMastery, findWord(t, s.store, "2").MasteryLevel)
			assert.Equal(t, 4500+tt.score, res.Profile.Stats.TotalXP)
			assert.Equal(t, 128, res.Profile.Stats.MasteredWords)
			assert.Equal(t, tt.wantAccuracy, res.Profile.Stats.Accuracy, "seeded accuracy counts as one earlier challenge")
			assert.Equal(t, 6, res.Profile.Stats.Streak, "seeded streak carries on")
			assert.Equal(t, tt.score, res.Round.SessionScore)
			assert.False(t, res.Round.Late)

			_, err = s.game.Submit(ctx, models.GameAnswer{})
			assert.ErrorIs(t, err, ErrRoundFinished)
		})
	}
}

func TestSubmitMasteryTransition(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()
	_, err := s.store.UpdateWord(ctx, "2", func(w *models.Word) error {
		w.MasteryLevel = 4
		return nil
	})
	require.NoError(t, err)

	_, err = s.game.StartRound(ctx, "2")
	require.NoError(t, err)
	res, err := s.game.Submit(ctx, models.GameAnswer{})
	require.NoError(t, err)
	assert.Equal(t, models.MaxMastery, res.Word.MasteryLevel)
	assert.Equal(t, 129, res.Profile.Stats.MasteredWords)

	// already mastered words do not count twice
	_, err = s.game.StartRound(ctx, "2")
	require.NoError(t, err)
	res, err = s.game.Submit(ctx, models.GameAnswer{})
	require.NoError(t, err)
	assert.Equal(t, 129, res.Profile.Stats.MasteredWords)
	assert.Equal(t, 170, res.Round.SessionScore)
}

func TestSubmitGuards(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	_, err := s.game.Submit(ctx, models.GameAnswer{})
	assert.ErrorIs(t, err, ErrNoActiveRound)

	_, err = s.game.StartRound(ctx, "1")
	require.NoError(t, err)
	_, err = s.game.Submit(ctx, models.GameAnswer{WordID: "2"})
	var verr models.ValidationError
	assert.ErrorAs(t, err, &verr)

	s.game.Abandon(ctx)
	_, err = s.game.Current(ctx)
	assert.ErrorIs(t, err, ErrNoActiveRound)
}

func TestSubmitLateIsFlagged(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	now := start
	s.game.now = func() time.Time { return now }

	_, err := s.game.StartRound(ctx, "1")
	require.NoError(t, err)
	now = start.Add(models.RoundDuration + time.Second)

	res, err := s.game.Submit(ctx, models.GameAnswer{})
	require.NoError(t, err)
	assert.True(t, res.Round.Late)
	assert.Equal(t, 1, res.Word.MasteryLevel)
	assert.Equal(t, "2026-05-01", res.Profile.Stats.LastActiveDate)
}

func TestSubmitFailureLeavesState(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()
	s.fake.ValidateAnswerFunc = func(context.Context, models.Word, models.GameAnswer) (models.ValidationResult, error) {
		return models.ValidationResult{}, &gateway.GenerationError{Op: gateway.OpValidateAnswer, Kind: gateway.KindRemote, Err: errors.New("timeout")}
	}

	_, err := s.game.StartRound(ctx, "1")
	require.NoError(t, err)
	bankBefore := s.store.LoadWordBank(ctx)
	profileBefore := s.store.LoadActiveProfile(ctx)

	_, err = s.game.Submit(ctx, models.GameAnswer{})
	assert.ErrorIs(t, err, gateway.ErrRemote)
	assert.Equal(t, bankBefore, s.store.LoadWordBank(ctx))
	assert.Equal(t, profileBefore, s.store.LoadActiveProfile(ctx))

	r, err := s.game.Current(ctx)
	require.NoError(t, err)
	assert.False(t, r.Finished(), "the round can be answered again")
}

// rosterWriteFailer fails roster writes while fail is set
type rosterWriteFailer struct {
	storage.Backend
	fail bool
}

func (b *rosterWriteFailer) SetMany(ctx context.Context, entries map[string]string) error {
	if _, ok := entries[store.KeyProfiles]; ok && b.fail {
		return errors.New("disk full")
	}
	return b.Backend.SetMany(ctx, entries)
}

func TestSubmitStatsWriteFailureKeepsRoundOpen(t *testing.T) {
	log := zap.NewNop()
	backend := &rosterWriteFailer{Backend: storage.NewMemoryBackend(), fail: true}
	st := store.New(backend, log)
	fake := &gatewaytest.Fake{}
	player := audio.NewPlayer(audio.DefaultSampleRate, log)
	t.Cleanup(player.Close)
	words := NewWordService(st, fake, player, nil, config.AIConfig{Timeout: time.Second}, log)
	game := NewGameService(st, fake, words, log)
	ctx := context.Background()

	_, err := game.StartRound(ctx, "1")
	require.NoError(t, err)

	_, err = game.Submit(ctx, models.GameAnswer{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRoundFinished)

	r, err := game.Current(ctx)
	require.NoError(t, err)
	assert.False(t, r.Finished())
	assert.Equal(t, 0, r.SessionScore)

	backend.fail = false
	res, err := game.Submit(ctx, models.GameAnswer{})
	require.NoError(t, err)
	assert.True(t, res.Round.Finished())
	assert.Equal(t, 85, res.Round.SessionScore)
	assert.Equal(t, 4585, res.Profile.Stats.TotalXP)
}

func TestSubmitDiscardedAfterCancel(t *testing.T) {
	s := newTestServices(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	s.fake.ValidateAnswerFunc = func(context.Context, models.Word, models.GameAnswer) (models.ValidationResult, error) {
		cancel()
		return gatewaytest.Result(95), nil
	}

	_, err := s.game.StartRound(context.Background(), "1")
	require.NoError(t, err)
	_, err = s.game.Submit(ctx, models.GameAnswer{})
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 0, findWord(t, s.store, "1").MasteryLevel)
	assert.Equal(t, 4500, s.store.LoadActiveProfile(context.Background()).Stats.TotalXP)
}

func TestSubmitSingleInFlight(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	s.fake.ValidateAnswerFunc = func(context.Context, models.Word, models.GameAnswer) (models.ValidationResult, error) {
		close(started)
		<-release
		return gatewaytest.Result(90), nil
	}

	_, err := s.game.StartRound(ctx, "1")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.game.Submit(ctx, models.GameAnswer{})
		done <- err
	}()
	<-started

	_, err = s.game.Submit(ctx, models.GameAnswer{})
	assert.ErrorIs(t, err, ErrValidationInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, s.fake.Calls("validate_answer"))
}

func TestSubmitAfterRoundReplaced(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	s.fake.ValidateAnswerFunc = func(context.Context, models.Word, models.GameAnswer) (models.ValidationResult, error) {
		close(started)
		<-release
		return gatewaytest.Result(90), nil
	}

	_, err := s.game.StartRound(ctx, "1")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.game.Submit(ctx, models.GameAnswer{})
		done <- err
	}()
	<-started
	_, err = s.game.StartRound(ctx, "2")
	require.NoError(t, err)
	close(release)

	assert.ErrorIs(t, <-done, ErrRoundReplaced)
	assert.Equal(t, 0, findWord(t, s.store, "1").MasteryLevel)
}

func TestHint(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	_, err := s.game.Hint(ctx)
	assert.ErrorIs(t, err, ErrNoActiveRound)

	_, err = s.game.StartRound(ctx, "1")
	require.NoError(t, err)

	hint, err := s.game.Hint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "It starts with B", hint)

	hint, err = s.game.Hint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "It starts with B", hint)
	assert.Equal(t, 1, s.fake.Calls("hint"), "the hint is fetched once per round")

	r, err := s.game.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "It starts with B", r.Hint)
}

func TestHintSingleInFlight(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	s.fake.GetHintFunc = func(context.Context, string, string) (string, error) {
		close(started)
		<-release
		return "Think of kindness", nil
	}

	_, err := s.game.StartRound(ctx, "1")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.game.Hint(ctx)
		done <- err
	}()
	<-started

	_, err = s.game.Hint(ctx)
	assert.ErrorIs(t, err, ErrHintInProgress)

	close(release)
	require.NoError(t, <-done)
}

func TestHintDiscardedAfterCancel(t *testing.T) {
	s := newTestServices(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	s.fake.GetHintFunc = func(context.Context, string, string) (string, error) {
		cancel()
		return "too late", nil
	}

	_, err := s.game.StartRound(context.Background(), "1")
	require.NoError(t, err)
	_, err = s.game.Hint(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	r, err := s.game.Current(context.Background())
	require.NoError(t, err)
	assert.Empty(t, r.Hint)
}

func TestProgressSummary(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	sum := s.progress.Summary(ctx)
	assert.Equal(t, 2, sum.TotalWords)
	assert.Equal(t, 1, sum.Starred)
	assert.Equal(t, 1, sum.Learning)
	assert.Equal(t, 0, sum.Mastered)
	assert.Equal(t, 2, sum.MasteryHistogram[0])
	assert.Equal(t, map[int]int{4: 2}, sum.WordsByLevel)
	assert.Equal(t, 0, sum.TasksDone)
	assert.Equal(t, 2, sum.TasksTotal)
	assert.Equal(t, 4500, sum.Stats.TotalXP)

	_, err := s.words.MarkMastered(ctx, "2")
	require.NoError(t, err)
	_, err = s.profiles.ToggleTask(ctx, store.DefaultProfileID, "t1")
	require.NoError(t, err)

	sum = s.progress.Summary(ctx)
	assert.Equal(t, 1, sum.Mastered)
	assert.Equal(t, 0, sum.Learning)
	assert.Equal(t, 1, sum.MasteryHistogram[models.MaxMastery])
	assert.Equal(t, 1, sum.TasksDone)
}

type recordingSender struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (r *recordingSender) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	r.inputs = append(r.inputs, in)
	if r.err != nil {
		return nil, r.err
	}
	return &sesv2.SendEmailOutput{}, nil
}

func TestReportSend(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()
	sender := &recordingSender{}
	reports := NewReportServiceWithSender(sender, config.EmailConfig{
		From:     "hero@example.com",
		FromName: "Vocab Hero",
		To:       "parent@example.com",
	}, s.progress, zap.NewNop())
	require.True(t, reports.IsEnabled())

	require.NoError(t, reports.Send(ctx, ""))
	require.Len(t, sender.inputs, 1)
	in := sender.inputs[0]
	assert.Equal(t, "Vocab Hero <hero@example.com>", *in.FromEmailAddress)
	assert.Equal(t, []string{"parent@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Alex Hero's Vocab Hero progress", *in.Content.Simple.Subject.Data)
	assert.Contains(t, *in.Content.Simple.Body.Text.Data, "XP: 4500")
	assert.Contains(t, *in.Content.Simple.Body.Html.Data, "Complete 5 Word Challenges")

	require.NoError(t, reports.Send(ctx, "other@example.com"))
	assert.Equal(t, []string{"other@example.com"}, sender.inputs[1].Destination.ToAddresses)

	sender.err = errors.New("throttled")
	assert.ErrorContains(t, reports.Send(ctx, ""), "throttled")
}

func TestReportDisabledOrMissingRecipient(t *testing.T) {
	s := newTestServices(t, nil)
	ctx := context.Background()

	disabled := NewReportServiceWithSender(nil, config.EmailConfig{To: "parent@example.com"}, s.progress, zap.NewNop())
	assert.False(t, disabled.IsEnabled())
	assert.NoError(t, disabled.Send(ctx, ""))

	noRecipient := NewReportServiceWithSender(&recordingSender{}, config.EmailConfig{From: "hero@example.com"}, s.progress, zap.NewNop())
	var verr models.ValidationError
	assert.ErrorAs(t, noRecipient.Send(ctx, " "), &verr)
}

func TestBackupRoundTrip(t *testing.T) {
	src := newTestServices(t, nil)
	ctx := context.Background()
	_, err := src.profiles.Create(ctx, NewProfile{Name: "Priya", Level: 4})
	require.NoError(t, err)
	_, err = src.words.ToggleStar(ctx, "2")
	require.NoError(t, err)
	_, err = src.profiles.SetColorScheme(ctx, "Sky Blue")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewBackupService(src.store, zap.NewNop()).Export(ctx, &buf))
	assert.Contains(t, buf.String(), `"version": "1.0"`)

	dst := newTestServices(t, nil)
	require.NoError(t, NewBackupService(dst.store, zap.NewNop()).Import(ctx, &buf))

	assert.Equal(t, "Priya", dst.profiles.Active(ctx).Name)
	roster, _ := dst.profiles.Roster(ctx)
	assert.Len(t, roster, 2)
	assert.True(t, findWord(t, dst.store, "2").IsStarred)
	assert.Equal(t, "Sky Blue", dst.profiles.ColorScheme(ctx).Name)
}

func TestBackupFile(t *testing.T) {
	src := newTestServices(t, nil)
	ctx := context.Background()
	path := t.TempDir() + "/backup.json"

	require.NoError(t, NewBackupService(src.store, zap.NewNop()).ExportFile(ctx, path))
	dst := newTestServices(t, nil)
	require.NoError(t, NewBackupService(dst.store, zap.NewNop()).ImportFile(ctx, path))
	assert.Equal(t, src.store.LoadWordBank(ctx), dst.store.LoadWordBank(ctx))
}

func TestBackupImportRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{"},
		{name: "wrong version", body: `{"version":"0.1","values":{}}`},
		{name: "unknown key", body: `{"version":"1.0","values":{"other":"1"}}`},
		{name: "invalid value", body: `{"version":"1.0","values":{"vocabHero_wordBank":"[{"}}`},
		{name: "unknown colour scheme", body: `{"version":"1.0","values":{"vocabHero_colorScheme":"Midnight"}}`},
		{name: "duplicate profile ids", body: `{"version":"1.0","values":{"vocabHero_profiles":"[{\"id\":\"1\"},{\"id\":\"1\"}]"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServices(t, nil)
			err := NewBackupService(s.store, zap.NewNop()).Import(context.Background(), strings.NewReader(tt.body))
			assert.Error(t, err)
			assert.Len(t, s.store.LoadWordBank(context.Background()), 2)
		})
	}
}
