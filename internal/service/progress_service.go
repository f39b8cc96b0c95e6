package service

import (
	"context"

	"go.uber.org/zap"

	"vocabhero/internal/models"
	"vocabhero/internal/store"
)

// ProgressSummary is the data behind the progress view
type ProgressSummary struct {
	Profile          models.Profile             `json:"profile"`
	Stats            models.UserStats           `json:"stats"`
	MasteryHistogram [models.MaxMastery + 1]int `json:"masteryHistogram"`
	TotalWords       int                        `json:"totalWords"`
	Starred          int                        `json:"starred"`
	Learning         int                        `json:"learning"`
	Mastered         int                        `json:"mastered"`
	TasksDone        int                        `json:"tasksDone"`
	TasksTotal       int                        `json:"tasksTotal"`
	WordsByLevel     map[int]int                `json:"wordsByLevel"`
}

type ProgressService struct {
	store *store.Store
	log   *zap.Logger
}

func NewProgressService(st *store.Store, log *zap.Logger) *ProgressService {
	return &ProgressService{store: st, log: log}
}

// Summary computes the active profile's progress over the shared bank
func (s *ProgressService) Summary(ctx context.Context) ProgressSummary {
	p := s.store.LoadActiveProfile(ctx)
	bank := s.store.LoadWordBank(ctx)

	sum := ProgressSummary{
		Profile:      p,
		Stats:        p.Stats,
		TotalWords:   len(bank),
		WordsByLevel: make(map[int]int),
	}
	for i := range bank {
		w := &bank[i]
		sum.MasteryHistogram[w.MasteryLevel]++
		sum.WordsByLevel[w.Level]++
		if models.FilterMastered.Matches(w, "") {
			sum.Mastered++
		}
		if models.FilterStarred.Matches(w, "") {
			sum.Starred++
		}
		if models.FilterLearning.Matches(w, "") {
			sum.Learning++
		}
	}
	for _, t := range p.StudyPlan {
		sum.TasksTotal++
		if t.IsCompleted {
			sum.TasksDone++
		}
	}
	return sum
}
