package models

import "strings"

const MaxMastery = 5

// WordCategory is one of the fixed 11+ vocabulary themes
type WordCategory string

const (
	CategoryDescribingEmotion   WordCategory = "Describing Emotion"
	CategoryGivingInstruction   WordCategory = "Giving People Instruction"
	CategoryPersuade            WordCategory = "Persuade people"
	CategoryDeliciousDescribing WordCategory = "Delicious Describing"
	CategoryLessDramaticDoing   WordCategory = "Less Dramatic doing Words"
	CategoryMoreDramaticDoing   WordCategory = "More Dramatic doing Words"
	CategoryGeneralWordGroups   WordCategory = "General Word Groups"
	CategoryExcitingWords       WordCategory = "Exciting Words"
	CategoryOnomatopoeia        WordCategory = "Sound Onomatopoeia"
	CategoryIntelligentWords    WordCategory = "Intelligent Words"
)

var Categories = []WordCategory{
	CategoryDescribingEmotion,
	CategoryGivingInstruction,
	CategoryPersuade,
	CategoryDeliciousDescribing,
	CategoryLessDramaticDoing,
	CategoryMoreDramaticDoing,
	CategoryGeneralWordGroups,
	CategoryExcitingWords,
	CategoryOnomatopoeia,
	CategoryIntelligentWords,
}

// Valid reports whether c is one of the fixed categories
func (c WordCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Word is a vocabulary entry in the shared word bank
type Word struct {
	ID              string   `json:"id"`
	Word            string   `json:"word"`
	Definition      string   `json:"definition"`
	PartOfSpeech    string   `json:"part_of_speech"`
	Synonyms        []string `json:"synonyms"`
	Antonyms        []string `json:"antonyms"`
	ExampleSentence string   `json:"example_sentence"`
	Level           int      `json:"level"`
	Phonetic        string   `json:"phonetic,omitempty"`
	NextReviewDate  string   `json:"nextReviewDate,omitempty"`
	IntervalDays    int      `json:"intervalDays,omitempty"`
	MasteryLevel    int      `json:"masteryLevel"`
	IsStarred       bool     `json:"isStarred"`
}

// IsMastered reports whether the word has reached the top mastery level
func (w *Word) IsMastered() bool {
	return w.MasteryLevel >= MaxMastery
}

// InReviewPool reports whether the word is eligible for a review round
func (w *Word) InReviewPool() bool {
	return w.IsStarred || w.MasteryLevel > 0
}

// ApplyScore raises mastery by one for a strong answer, capped at MaxMastery
func (w *Word) ApplyScore(score int) {
	if score > 80 && w.MasteryLevel < MaxMastery {
		w.MasteryLevel++
	}
}

// Normalize clamps out-of-range values and fills nil slices
func (w *Word) Normalize() {
	if w.MasteryLevel < 0 {
		w.MasteryLevel = 0
	}
	if w.MasteryLevel > MaxMastery {
		w.MasteryLevel = MaxMastery
	}
	if w.Synonyms == nil {
		w.Synonyms = []string{}
	}
	if w.Antonyms == nil {
		w.Antonyms = []string{}
	}
}

// WordFilter selects a subset of the word bank
type WordFilter string

const (
	FilterAll      WordFilter = "all"
	FilterLearning WordFilter = "learning"
	FilterStarred  WordFilter = "starred"
	FilterMastered WordFilter = "mastered"
)

// ParseWordFilter maps a query value to a filter, defaulting to all
func ParseWordFilter(s string) (WordFilter, error) {
	switch f := WordFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterLearning, FilterStarred, FilterMastered:
		return f, nil
	default:
		return "", ValidationError{Field: "filter", Message: "filter must be one of all, learning, starred, mastered"}
	}
}

// Matches applies the filter and a case-insensitive substring search on the word text
func (f WordFilter) Matches(w *Word, search string) bool {
	if search != "" && !strings.Contains(strings.ToLower(w.Word), strings.ToLower(search)) {
		return false
	}
	switch f {
	case FilterLearning:
		return w.MasteryLevel < MaxMastery && !w.IsStarred
	case FilterStarred:
		return w.IsStarred
	case FilterMastered:
		return w.MasteryLevel == MaxMastery
	default:
		return true
	}
}
