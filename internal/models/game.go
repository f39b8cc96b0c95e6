package models

import "time"

// RoundDuration is the countdown for a single challenge
const RoundDuration = 120 * time.Second

// GameAnswer is the learner's submission for one word
type GameAnswer struct {
	WordID     string `json:"wordId"`
	Definition string `json:"definition"`
	Synonyms   string `json:"synonyms"`
	Antonyms   string `json:"antonyms"`
	Sentence   string `json:"sentence"`
}

// Corrections carries per-field guidance from the grader
type Corrections struct {
	Definition string `json:"definition,omitempty"`
	Synonyms   string `json:"synonyms,omitempty"`
	Antonyms   string `json:"antonyms,omitempty"`
	Sentence   string `json:"sentence,omitempty"`
}

// ValidationResult is the graded outcome of a GameAnswer
type ValidationResult struct {
	IsCorrect   bool        `json:"isCorrect"`
	Score       int         `json:"score"`
	Feedback    string      `json:"feedback"`
	Corrections Corrections `json:"corrections"`
}

// Round is an in-progress challenge held in memory for one profile
type Round struct {
	ID        string            `json:"id"`
	ProfileID string            `json:"profileId"`
	Word      Word              `json:"word"`
	StartedAt time.Time         `json:"startedAt"`
	Deadline  time.Time         `json:"deadline"`
	Hint      string            `json:"hint,omitempty"`
	Result    *ValidationResult `json:"result,omitempty"`
	Late      bool              `json:"late,omitempty"`

	// Review is set when the word came from the learner's bank rather than generation
	Review       bool `json:"review"`
	SessionScore int  `json:"sessionScore"`
}

// TimeLeft returns the remaining countdown, never negative
func (r *Round) TimeLeft(now time.Time) time.Duration {
	if r.Result != nil {
		return 0
	}
	left := r.Deadline.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Finished reports whether the round has been graded
func (r *Round) Finished() bool {
	return r.Result != nil
}
