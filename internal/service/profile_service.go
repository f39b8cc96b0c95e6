package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vocabhero/internal/models"
	"vocabhero/internal/store"
)

// ProfileService handles the learner roster, study plans and display settings
type ProfileService struct {
	store *store.Store
	log   *zap.Logger
}

func NewProfileService(st *store.Store, log *zap.Logger) *ProfileService {
	return &ProfileService{store: st, log: log}
}

// Roster returns all profiles and the id of the active one
func (s *ProfileService) Roster(ctx context.Context) ([]models.Profile, string) {
	return s.store.LoadRoster(ctx), s.store.LoadActiveProfile(ctx).ID
}

func (s *ProfileService) Active(ctx context.Context) models.Profile {
	return s.store.LoadActiveProfile(ctx)
}

// Switch makes id the active profile. Unlike the store, an unknown id is an error here.
func (s *ProfileService) Switch(ctx context.Context, id string) (models.Profile, error) {
	var active models.Profile
	err := s.store.UpdateRoster(ctx, func(roster []models.Profile, _ string) ([]models.Profile, string, error) {
		for _, p := range roster {
			if p.ID == id {
				active = p
				return roster, id, nil
			}
		}
		return nil, "", store.ErrProfileNotFound
	})
	if err != nil {
		return models.Profile{}, err
	}
	s.log.Info("switched active profile", zap.String("profile_id", id))
	return active, nil
}

// NewProfile holds the fields a parent supplies for a new learner
type NewProfile struct {
	Name        string                `json:"name"`
	Level       int                   `json:"level"`
	Categories  []models.WordCategory `json:"selectedCategories"`
	AvatarColor string                `json:"avatarColor"`
}

// Create adds a learner to the roster and makes it active
func (s *ProfileService) Create(ctx context.Context, in NewProfile) (models.Profile, error) {
	color := models.AvatarColors[0]
	if in.AvatarColor != "" {
		c, ok := models.LookupAvatarColor(in.AvatarColor)
		if !ok {
			return models.Profile{}, models.ValidationError{Field: "avatarColor", Message: "unknown avatar colour"}
		}
		color = c
	}
	if in.Level == 0 {
		in.Level = 5
	}

	name := strings.TrimSpace(in.Name)
	p := models.Profile{
		ID:                 uuid.NewString(),
		Name:               name,
		Avatar:             models.AvatarURL(name, color.Hex),
		Level:              in.Level,
		SelectedCategories: in.Categories,
		StudyPlan:          []models.StudyTask{},
	}
	if err := p.Validate(); err != nil {
		return models.Profile{}, err
	}
	p.Normalize()

	err := s.store.UpdateRoster(ctx, func(roster []models.Profile, _ string) ([]models.Profile, string, error) {
		return append(roster, p), p.ID, nil
	})
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to create profile: %w", err)
	}
	s.log.Info("created profile", zap.String("profile_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// ProfileUpdate carries optional edits; nil fields are left alone
type ProfileUpdate struct {
	Name        *string `json:"name"`
	AvatarColor *string `json:"avatarColor"`
	Level       *int    `json:"level"`
}

// Update applies name, avatar colour and level changes. The avatar is
// regenerated whenever the name or colour changes.
func (s *ProfileService) Update(ctx context.Context, id string, upd ProfileUpdate) (models.Profile, error) {
	if upd.Name != nil {
		if err := models.ValidateName(*upd.Name); err != nil {
			return models.Profile{}, err
		}
	}
	var color models.AvatarColor
	if upd.AvatarColor != nil {
		c, ok := models.LookupAvatarColor(*upd.AvatarColor)
		if !ok {
			return models.Profile{}, models.ValidationError{Field: "avatarColor", Message: "unknown avatar colour"}
		}
		color = c
	}
	if upd.Level != nil && !models.ValidLevel(*upd.Level) {
		return models.Profile{}, models.ValidationError{
			Field:   "level",
			Message: fmt.Sprintf("level must be between %d and %d", models.MinLevel, models.MaxLevel),
		}
	}

	return s.store.UpdateProfile(ctx, id, func(p *models.Profile) error {
		if upd.Name == nil && upd.AvatarColor == nil && upd.Level == nil {
			return nil
		}
		hex := models.AvatarColorHex(p.Avatar)
		if hex == "" {
			hex = models.AvatarColors[0].Hex
		}
		if upd.AvatarColor != nil {
			hex = color.Hex
		}
		if upd.Name != nil {
			p.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Name != nil || upd.AvatarColor != nil {
			p.Avatar = models.AvatarURL(p.Name, hex)
		}
		if upd.Level != nil {
			p.Level = *upd.Level
		}
		return nil
	})
}

// ToggleCategory selects or deselects a word category for a profile
func (s *ProfileService) ToggleCategory(ctx context.Context, id string, category models.WordCategory) (models.Profile, error) {
	if !category.Valid() {
		return models.Profile{}, models.ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", category)}
	}
	return s.store.UpdateProfile(ctx, id, func(p *models.Profile) error {
		p.ToggleCategory(category)
		return nil
	})
}

// AddTask appends a study task to a profile's plan
func (s *ProfileService) AddTask(ctx context.Context, id, text string) (models.StudyTask, error) {
	if err := models.ValidateTask(text); err != nil {
		return models.StudyTask{}, err
	}
	task := models.StudyTask{ID: uuid.NewString(), Task: strings.TrimSpace(text)}
	_, err := s.store.UpdateProfile(ctx, id, func(p *models.Profile) error {
		p.StudyPlan = append(p.StudyPlan, task)
		return nil
	})
	if err != nil {
		return models.StudyTask{}, err
	}
	return task, nil
}

// DeleteTask removes a study task
func (s *ProfileService) DeleteTask(ctx context.Context, id, taskID string) (models.Profile, error) {
	return s.store.UpdateProfile(ctx, id, func(p *models.Profile) error {
		i := p.TaskIndex(taskID)
		if i < 0 {
			return ErrTaskNotFound
		}
		p.StudyPlan = append(p.StudyPlan[:i], p.StudyPlan[i+1:]...)
		return nil
	})
}

// ToggleTask flips a study task's completion
func (s *ProfileService) ToggleTask(ctx context.Context, id, taskID string) (models.StudyTask, error) {
	var task models.StudyTask
	_, err := s.store.UpdateProfile(ctx, id, func(p *models.Profile) error {
		i := p.TaskIndex(taskID)
		if i < 0 {
			return ErrTaskNotFound
		}
		p.StudyPlan[i].IsCompleted = !p.StudyPlan[i].IsCompleted
		task = p.StudyPlan[i]
		return nil
	})
	return task, err
}

func (s *ProfileService) ColorScheme(ctx context.Context) models.ColorScheme {
	scheme, _ := models.LookupColorScheme(s.store.LoadColorScheme(ctx))
	return scheme
}

func (s *ProfileService) SetColorScheme(ctx context.Context, name string) (models.ColorScheme, error) {
	scheme, ok := models.LookupColorScheme(name)
	if !ok {
		return models.ColorScheme{}, models.ValidationError{Field: "colorScheme", Message: fmt.Sprintf("unknown colour scheme %q", name)}
	}
	if err := s.store.SaveColorScheme(ctx, scheme.Name); err != nil {
		return models.ColorScheme{}, err
	}
	return scheme, nil
}
