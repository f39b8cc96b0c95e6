package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"vocabhero/internal/models"
	"vocabhero/internal/service"
)

// ProfileHandler handles the learner roster, study plans and settings
type ProfileHandler struct {
	profiles *service.ProfileService
	log      *zap.Logger
}

func NewProfileHandler(profiles *service.ProfileService, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, log: log}
}

type rosterResponse struct {
	Profiles []models.Profile `json:"profiles"`
	ActiveID string           `json:"activeId"`
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	roster, activeID := h.profiles.Roster(r.Context())
	respondJSON(w, http.StatusOK, rosterResponse{Profiles: roster, ActiveID: activeID})
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.NewProfile
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	p, err := h.profiles.Create(r.Context(), in)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *ProfileHandler) Active(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.profiles.Active(r.Context()))
}

// SwitchActive makes another profile active
func (h *ProfileHandler) SwitchActive(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	if in.ID == "" {
		respondWithError(w, r, h.log, models.ValidationError{Field: "id", Message: "profile id is required"})
		return
	}
	p, err := h.profiles.Switch(r.Context(), in.ID)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var upd service.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	p, err := h.profiles.Update(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) ToggleCategory(w http.ResponseWriter, r *http.Request) {
	category := models.WordCategory(r.PathValue("category"))
	p, err := h.profiles.ToggleCategory(r.Context(), r.PathValue("id"), category)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Task string `json:"task"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	task, err := h.profiles.AddTask(r.Context(), r.PathValue("id"), in.Task)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

func (h *ProfileHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.DeleteTask(r.Context(), r.PathValue("id"), r.PathValue("taskId"))
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.profiles.ToggleTask(r.Context(), r.PathValue("id"), r.PathValue("taskId"))
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (h *ProfileHandler) ColorScheme(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.profiles.ColorScheme(r.Context()))
}

func (h *ProfileHandler) SetColorScheme(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	scheme, err := h.profiles.SetColorScheme(r.Context(), in.Name)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, scheme)
}

type catalogResponse struct {
	Categories   []models.WordCategory `json:"categories"`
	AvatarColors []models.AvatarColor  `json:"avatarColors"`
	ColorSchemes []models.ColorScheme  `json:"colorSchemes"`
	MinLevel     int                   `json:"minLevel"`
	MaxLevel     int                   `json:"maxLevel"`
	RoundSeconds int                   `json:"roundSeconds"`
}

// Catalog lists the fixed choices the settings view offers
func (h *ProfileHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, catalogResponse{
		Categories:   models.Categories,
		AvatarColors: models.AvatarColors,
		ColorSchemes: models.ColorSchemes,
		MinLevel:     models.MinLevel,
		MaxLevel:     models.MaxLevel,
		RoundSeconds: int(models.RoundDuration.Seconds()),
	})
}
