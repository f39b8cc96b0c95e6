package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"vocabhero/internal/audio"
	"vocabhero/internal/models"
	"vocabhero/internal/service"
)

// WordHandler handles the word bank and pronunciation
type WordHandler struct {
	words *service.WordService
	log   *zap.Logger
}

func NewWordHandler(words *service.WordService, log *zap.Logger) *WordHandler {
	return &WordHandler{words: words, log: log}
}

// List returns the bank filtered by ?filter= and searched by ?q=
func (h *WordHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParseWordFilter(r.URL.Query().Get("filter"))
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, h.words.List(r.Context(), filter, r.URL.Query().Get("q")))
}

func (h *WordHandler) Get(w http.ResponseWriter, r *http.Request) {
	word, err := h.words.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, word)
}

// Generate fetches a new word for the active profile
func (h *WordHandler) Generate(w http.ResponseWriter, r *http.Request) {
	word, err := h.words.FetchNew(r.Context())
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, word)
}

func (h *WordHandler) ToggleStar(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.words.ToggleStar)
}

func (h *WordHandler) MarkMastered(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.words.MarkMastered)
}

func (h *WordHandler) MarkForReview(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.words.MarkForReview)
}

func (h *WordHandler) update(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) (models.Word, error)) {
	word, err := fn(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, word)
}

// Pronounce streams the word's pronunciation as WAV
func (h *WordHandler) Pronounce(w http.ResponseWriter, r *http.Request) {
	if err := h.words.Pronounce(r.Context(), r.PathValue("id"), audio.WAVSink{W: w}); err != nil {
		respondWithError(w, r, h.log, err)
	}
}

// PronounceText streams the pronunciation of ?text= as WAV
func (h *WordHandler) PronounceText(w http.ResponseWriter, r *http.Request) {
	if err := h.words.PronounceText(r.Context(), r.URL.Query().Get("text"), audio.WAVSink{W: w}); err != nil {
		respondWithError(w, r, h.log, err)
	}
}
