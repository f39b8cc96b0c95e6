package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordApplyScore(t *testing.T) {
	tests := []struct {
		name    string
		mastery int
		score   int
		want    int
	}{
		{name: "strong answer raises mastery", mastery: 2, score: 85, want: 3},
		{name: "weak answer leaves mastery", mastery: 2, score: 50, want: 2},
		{name: "exactly 80 is not enough", mastery: 0, score: 80, want: 0},
		{name: "capped at five", mastery: 5, score: 100, want: 5},
		{name: "four to five", mastery: 4, score: 81, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Word{MasteryLevel: tt.mastery}
			w.ApplyScore(tt.score)
			assert.Equal(t, tt.want, w.MasteryLevel)
		})
	}
}

func TestWordApplyScoreMonotonic(t *testing.T) {
	w := Word{}
	prev := w.MasteryLevel
	for _, score := range []int{90, 10, 95, 0, 100, 100, 100, 100, 100} {
		w.ApplyScore(score)
		assert.GreaterOrEqual(t, w.MasteryLevel, prev)
		assert.LessOrEqual(t, w.MasteryLevel, MaxMastery)
		prev = w.MasteryLevel
	}
	assert.Equal(t, MaxMastery, w.MasteryLevel)
}

func TestWordFilterMatches(t *testing.T) {
	words := []Word{
		{Word: "Benevolent", MasteryLevel: 2, IsStarred: true},
		{Word: "Accumulate", MasteryLevel: 0},
		{Word: "Ephemeral", MasteryLevel: 5},
		{Word: "Gregarious", MasteryLevel: 5, IsStarred: true},
	}

	count := func(f WordFilter, search string) int {
		n := 0
		for i := range words {
			if f.Matches(&words[i], search) {
				n++
			}
		}
		return n
	}

	assert.Equal(t, 4, count(FilterAll, ""))
	assert.Equal(t, 1, count(FilterLearning, ""))
	assert.Equal(t, 2, count(FilterStarred, ""))
	assert.Equal(t, 2, count(FilterMastered, ""))
	assert.Equal(t, 1, count(FilterAll, "BENE"))
	assert.Equal(t, 0, count(FilterMastered, "bene"))

	// learning and starred are disjoint, and every non-mastered word is in one of them
	for i := range words {
		w := &words[i]
		learning := FilterLearning.Matches(w, "")
		starred := FilterStarred.Matches(w, "")
		assert.False(t, learning && starred, w.Word)
		if !w.IsMastered() {
			assert.True(t, learning || starred, w.Word)
		}
	}
}

func TestParseWordFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    WordFilter
		wantErr bool
	}{
		{in: "", want: FilterAll},
		{in: "Starred", want: FilterStarred},
		{in: " learning ", want: FilterLearning},
		{in: "mastered", want: FilterMastered},
		{in: "favourites", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWordFilter(tt.in)
			if tt.wantErr {
				var verr ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "filter", verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWordNormalize(t *testing.T) {
	w := Word{MasteryLevel: 9}
	w.Normalize()
	assert.Equal(t, MaxMastery, w.MasteryLevel)
	assert.NotNil(t, w.Synonyms)
	assert.NotNil(t, w.Antonyms)

	w = Word{MasteryLevel: -2}
	w.Normalize()
	assert.Equal(t, 0, w.MasteryLevel)
}

func TestProfileValidation(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{
			name:    "valid profile",
			profile: Profile{Name: "Sam", Level: 4, SelectedCategories: []WordCategory{CategoryExcitingWords}},
		},
		{
			name:    "blank name",
			profile: Profile{Name: "  ", Level: 5},
			wantErr: true,
		},
		{
			name:    "level too high",
			profile: Profile{Name: "Sam", Level: 7},
			wantErr: true,
		},
		{
			name:    "unknown category",
			profile: Profile{Name: "Sam", Level: 5, SelectedCategories: []WordCategory{"Spooky Words"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Profile.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProfileToggleCategory(t *testing.T) {
	p := Profile{SelectedCategories: []WordCategory{CategoryIntelligentWords}}

	p.ToggleCategory(CategoryExcitingWords)
	assert.Equal(t, []WordCategory{CategoryIntelligentWords, CategoryExcitingWords}, p.SelectedCategories)

	p.ToggleCategory(CategoryIntelligentWords)
	assert.Equal(t, []WordCategory{CategoryExcitingWords}, p.SelectedCategories)
}

func TestAvatarURL(t *testing.T) {
	url := AvatarURL("Alex Hero", "f87171")
	assert.Equal(t, "https://api.dicebear.com/7.x/initials/svg?seed=Alex%20Hero&backgroundColor=f87171", url)
	assert.Equal(t, "f87171", AvatarColorHex(url))

	c, ok := LookupAvatarColor("#60A5FA")
	require.True(t, ok)
	assert.Equal(t, "Sky Blue", c.Name)

	_, ok = LookupAvatarColor("000000")
	assert.False(t, ok)
}

func TestUserStatsRecordChallenge(t *testing.T) {
	day := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	var s UserStats

	s.RecordChallenge(85, day)
	assert.Equal(t, 85, s.Accuracy)
	assert.Equal(t, 85, s.TotalXP)
	assert.Equal(t, 1, s.Streak)

	s.RecordChallenge(50, day.Add(time.Hour))
	assert.Equal(t, 68, s.Accuracy)
	assert.Equal(t, 135, s.TotalXP)
	assert.Equal(t, 1, s.Streak, "same day does not extend the streak")

	s.RecordChallenge(100, day.AddDate(0, 0, 1))
	assert.Equal(t, 2, s.Streak)

	s.RecordChallenge(100, day.AddDate(0, 0, 5))
	assert.Equal(t, 1, s.Streak, "a gap resets the streak")
	assert.Equal(t, 4, s.ChallengesCompleted)
}

func TestUserStatsRecordChallengeLegacyStats(t *testing.T) {
	day := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		stats        UserStats
		score        int
		wantAccuracy int
		wantStreak   int
	}{
		{name: "accuracy without a count", stats: UserStats{Accuracy: 90, Streak: 3}, score: 70, wantAccuracy: 80, wantStreak: 4},
		{name: "fresh stats", stats: UserStats{}, score: 70, wantAccuracy: 70, wantStreak: 1},
		{name: "streak without a date", stats: UserStats{Streak: 9}, score: 100, wantAccuracy: 100, wantStreak: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.stats
			s.RecordChallenge(tt.score, day)
			assert.Equal(t, tt.wantAccuracy, s.Accuracy)
			assert.Equal(t, tt.wantStreak, s.Streak)
			assert.Equal(t, "2026-03-02", s.LastActiveDate)
		})
	}
}

func TestRoundTimeLeft(t *testing.T) {
	start := time.Now()
	r := Round{StartedAt: start, Deadline: start.Add(RoundDuration)}

	assert.Equal(t, RoundDuration, r.TimeLeft(start))
	assert.Equal(t, time.Duration(0), r.TimeLeft(start.Add(3*time.Minute)))

	r.Result = &ValidationResult{Score: 90}
	assert.True(t, r.Finished())
	assert.Equal(t, time.Duration(0), r.TimeLeft(start))
}

func TestLookupColorScheme(t *testing.T) {
	s, ok := LookupColorScheme("sky blue")
	require.True(t, ok)
	assert.Equal(t, "#3b82f6", s.Primary)

	_, ok = LookupColorScheme("Midnight")
	assert.False(t, ok)
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{email: "parent@example.com"},
		{email: " parent.name+vocab@school.co.uk "},
		{email: "", wantErr: true},
		{email: "parent@", wantErr: true},
		{email: "not an email", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}
