package store

import "vocabhero/internal/models"

// DefaultProfileID is the id of the seeded first-run profile
const DefaultProfileID = "1"

// DefaultRoster returns the roster used when nothing has been persisted.
// It is the only place first-run profile content is defined.
func DefaultRoster() []models.Profile {
	return []models.Profile{{
		ID:     DefaultProfileID,
		Name:   "Alex Hero",
		Avatar: models.AvatarURL("Alex", models.AvatarColors[0].Hex),
		Level:  5,
		SelectedCategories: []models.WordCategory{
			models.CategoryIntelligentWords,
			models.CategoryExcitingWords,
		},
		Stats: models.UserStats{
			MasteredWords: 128,
			TotalXP:       4500,
			Streak:        5,
			Accuracy:      88,
		},
		StudyPlan: []models.StudyTask{
			{ID: "t1", Task: "Complete 5 Word Challenges", IsCompleted: false},
			{ID: "t2", Task: `Master 3 words from "Intelligent Words"`, IsCompleted: false},
		},
	}}
}

// DefaultWordBank returns the two example words seeded on first use
func DefaultWordBank() []models.Word {
	return []models.Word{
		{
			ID:              "1",
			Word:            "Benevolent",
			Definition:      "Kind and helpful; showing good will towards others and wanting to do good.",
			PartOfSpeech:    "Adjective",
			Synonyms:        []string{"kind", "altruistic", "caring"},
			Antonyms:        []string{"malicious", "unkind", "spiteful"},
			ExampleSentence: "The benevolent queen gave food and warm clothes to the entire village.",
			Level:           4,
			Phonetic:        "/bəˈnev.əl.ənt/",
			MasteryLevel:    0,
			IsStarred:       true,
		},
		{
			ID:              "2",
			Word:            "Accumulate",
			Definition:      "To gather together or acquire an increasing number or quantity of something.",
			PartOfSpeech:    "Verb",
			Synonyms:        []string{"collect", "gather", "amass"},
			Antonyms:        []string{"disperse", "scatter", "dissipate"},
			ExampleSentence: "Dust began to accumulate on the old books in the attic.",
			Level:           4,
			Phonetic:        "/əˈkjuː.mjə.leɪt/",
			MasteryLevel:    0,
			IsStarred:       false,
		},
	}
}
