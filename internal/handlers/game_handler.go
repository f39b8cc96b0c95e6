package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"vocabhero/internal/models"
	"vocabhero/internal/service"
)

// GameHandler handles the timed word challenge
type GameHandler struct {
	game *service.GameService
	log  *zap.Logger
	now  func() time.Time
}

func NewGameHandler(game *service.GameService, log *zap.Logger) *GameHandler {
	return &GameHandler{game: game, log: log, now: time.Now}
}

type roundResponse struct {
	models.Round
	SecondsLeft int `json:"secondsLeft"`
}

func (h *GameHandler) roundView(round models.Round) roundResponse {
	left := round.TimeLeft(h.now())
	return roundResponse{Round: round, SecondsLeft: int((left + time.Second - 1) / time.Second)}
}

// StartRound begins a challenge, optionally for a chosen review word
func (h *GameHandler) StartRound(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ReviewWordID string `json:"reviewWordId"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	if in.ReviewWordID == "" {
		in.ReviewWordID = r.URL.Query().Get("reviewWordId")
	}

	round, err := h.game.StartRound(r.Context(), in.ReviewWordID)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.roundView(round))
}

func (h *GameHandler) Current(w http.ResponseWriter, r *http.Request) {
	round, err := h.game.Current(r.Context())
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, h.roundView(round))
}

func (h *GameHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	h.game.Abandon(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) Hint(w http.ResponseWriter, r *http.Request) {
	hint, err := h.game.Hint(r.Context())
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"hint": hint})
}

func (h *GameHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var answer models.GameAnswer
	if err := decodeJSON(w, r, &answer); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	res, err := h.game.Submit(r.Context(), answer)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
