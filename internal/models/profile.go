package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	MinLevel = 4
	MaxLevel = 6
)

// Profile represents a learner on the shared device
type Profile struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Avatar             string         `json:"avatar"`
	Level              int            `json:"level"`
	SelectedCategories []WordCategory `json:"selectedCategories"`
	Stats              UserStats      `json:"stats"`
	StudyPlan          []StudyTask    `json:"studyPlan"`
}

// UserStats holds the dashboard counters for a profile
type UserStats struct {
	MasteredWords       int    `json:"masteredWords"`
	TotalXP             int    `json:"totalXp"`
	Streak              int    `json:"streak"`
	Accuracy            int    `json:"accuracy"`
	ChallengesCompleted int    `json:"challengesCompleted,omitempty"`
	LastActiveDate      string `json:"lastActiveDate,omitempty"`
}

// StudyTask is a single item of a parent-curated study plan
type StudyTask struct {
	ID          string `json:"id"`
	Task        string `json:"task"`
	IsCompleted bool   `json:"isCompleted"`
}

// AvatarColor is one of the fixed background colours for initials avatars
type AvatarColor struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

var AvatarColors = []AvatarColor{
	{Name: "Power Red", Hex: "f87171"},
	{Name: "Stark Gold", Hex: "fbbf24"},
	{Name: "Eco Green", Hex: "4ade80"},
	{Name: "Sky Blue", Hex: "60a5fa"},
	{Name: "Magic Purple", Hex: "a78bfa"},
	{Name: "Deep Pink", Hex: "f472b6"},
	{Name: "Solar Orange", Hex: "fb923c"},
	{Name: "Cool Slate", Hex: "94a3b8"},
}

const avatarBaseURL = "https://api.dicebear.com/7.x/initials/svg"

// AvatarURL builds the initials avatar for a name and colour hex
func AvatarURL(name, hex string) string {
	seed := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return fmt.Sprintf("%s?seed=%s&backgroundColor=%s", avatarBaseURL, seed, hex)
}

// AvatarColorHex extracts the background colour from an avatar URL, if any
func AvatarColorHex(avatar string) string {
	u, err := url.Parse(avatar)
	if err != nil {
		return ""
	}
	return u.Query().Get("backgroundColor")
}

// LookupAvatarColor finds a colour by hex or by name (case-insensitive)
func LookupAvatarColor(key string) (AvatarColor, bool) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "#")
	for _, c := range AvatarColors {
		if strings.EqualFold(c.Hex, key) || strings.EqualFold(c.Name, key) {
			return c, true
		}
	}
	return AvatarColor{}, false
}

// ValidLevel reports whether level is a supported school year
func ValidLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}

// Validate checks the fields a parent can edit
func (p *Profile) Validate() error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	if !ValidLevel(p.Level) {
		return ValidationError{Field: "level", Message: fmt.Sprintf("level must be between %d and %d", MinLevel, MaxLevel)}
	}
	for _, c := range p.SelectedCategories {
		if !c.Valid() {
			return ValidationError{Field: "selectedCategories", Message: fmt.Sprintf("unknown category %q", c)}
		}
	}
	return nil
}

// HasCategory reports whether the profile has selected a category
func (p *Profile) HasCategory(c WordCategory) bool {
	for _, sc := range p.SelectedCategories {
		if sc == c {
			return true
		}
	}
	return false
}

// ToggleCategory adds the category when absent and removes it when present
func (p *Profile) ToggleCategory(c WordCategory) {
	if p.HasCategory(c) {
		kept := make([]WordCategory, 0, len(p.SelectedCategories))
		for _, sc := range p.SelectedCategories {
			if sc != c {
				kept = append(kept, sc)
			}
		}
		p.SelectedCategories = kept
		return
	}
	p.SelectedCategories = append(p.SelectedCategories, c)
}

// TaskIndex returns the position of a study task or -1
func (p *Profile) TaskIndex(taskID string) int {
	for i, t := range p.StudyPlan {
		if t.ID == taskID {
			return i
		}
	}
	return -1
}

// RecordChallenge folds a graded answer into the stats.
// Accuracy is the running mean of all challenge scores. Stats written
// without a challenge count or an active date count their accuracy as
// one earlier challenge and keep their streak going.
func (s *UserStats) RecordChallenge(score int, now time.Time) {
	if s.ChallengesCompleted == 0 && s.Accuracy > 0 {
		s.ChallengesCompleted = 1
	}
	total := s.Accuracy*s.ChallengesCompleted + score
	s.ChallengesCompleted++
	s.Accuracy = (total + s.ChallengesCompleted/2) / s.ChallengesCompleted
	s.TotalXP += score

	today := now.Format(time.DateOnly)
	switch s.LastActiveDate {
	case today:
	case "", now.AddDate(0, 0, -1).Format(time.DateOnly):
		s.Streak++
	default:
		s.Streak = 1
	}
	s.LastActiveDate = today
}

// Normalize repairs values written by older clients
func (p *Profile) Normalize() {
	if !ValidLevel(p.Level) {
		p.Level = 5
	}
	if p.SelectedCategories == nil {
		p.SelectedCategories = []WordCategory{}
	}
	if p.StudyPlan == nil {
		p.StudyPlan = []StudyTask{}
	}
}
