package handlers

import (
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"vocabhero/internal/metrics"
)

// Handlers groups everything the router dispatches to
type Handlers struct {
	Middleware *Middleware
	Profiles   *ProfileHandler
	Words      *WordHandler
	Game       *GameHandler
	Parent     *ParentHandler
	Events     *EventsHandler
}

// NewRouter registers the API routes and wraps them with CORS, metrics
// and request logging
func NewRouter(h Handlers, allowedOrigins []string, log *zap.Logger) http.Handler {
	mw := h.Middleware
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Profiles and settings
	mux.HandleFunc("GET /api/profiles", h.Profiles.List)
	mux.HandleFunc("POST /api/profiles", mw.RequireParent(h.Profiles.Create))
	mux.HandleFunc("GET /api/profiles/active", h.Profiles.Active)
	mux.HandleFunc("PUT /api/profiles/active", h.Profiles.SwitchActive)
	mux.HandleFunc("PATCH /api/profiles/{id}", h.Profiles.Update)
	mux.HandleFunc("POST /api/profiles/{id}/categories/{category}", h.Profiles.ToggleCategory)
	mux.HandleFunc("POST /api/profiles/{id}/tasks", mw.RequireParent(h.Profiles.AddTask))
	mux.HandleFunc("DELETE /api/profiles/{id}/tasks/{taskId}", mw.RequireParent(h.Profiles.DeleteTask))
	mux.HandleFunc("POST /api/profiles/{id}/tasks/{taskId}/toggle", h.Profiles.ToggleTask)
	mux.HandleFunc("GET /api/settings/color-scheme", h.Profiles.ColorScheme)
	mux.HandleFunc("PUT /api/settings/color-scheme", h.Profiles.SetColorScheme)
	mux.HandleFunc("GET /api/catalog", h.Profiles.Catalog)

	// Word bank
	mux.HandleFunc("GET /api/words", h.Words.List)
	mux.HandleFunc("POST /api/words/generate", mw.RateLimit(h.Words.Generate))
	mux.HandleFunc("GET /api/words/{id}", h.Words.Get)
	mux.HandleFunc("POST /api/words/{id}/star", h.Words.ToggleStar)
	mux.HandleFunc("POST /api/words/{id}/master", h.Words.MarkMastered)
	mux.HandleFunc("POST /api/words/{id}/review", h.Words.MarkForReview)
	mux.HandleFunc("GET /api/words/{id}/pronunciation", mw.RateLimit(h.Words.Pronounce))
	mux.HandleFunc("GET /api/pronunciation", mw.RateLimit(h.Words.PronounceText))

	// Game
	mux.HandleFunc("POST /api/game/rounds", mw.RateLimit(h.Game.StartRound))
	mux.HandleFunc("GET /api/game/rounds/current", h.Game.Current)
	mux.HandleFunc("DELETE /api/game/rounds/current", h.Game.Abandon)
	mux.HandleFunc("POST /api/game/hint", mw.RateLimit(h.Game.Hint))
	mux.HandleFunc("POST /api/game/answers", mw.RateLimit(h.Game.SubmitAnswer))

	// Progress and parent tools
	mux.HandleFunc("GET /api/progress", h.Parent.Progress)
	mux.HandleFunc("POST /api/parent/login", mw.RateLimit(h.Parent.Login))
	mux.HandleFunc("POST /api/parent/logout", h.Parent.Logout)
	mux.HandleFunc("POST /api/parent/report", mw.RequireParent(mw.RateLimit(h.Parent.SendReport)))
	mux.HandleFunc("GET /api/parent/backup", mw.RequireParent(h.Parent.ExportBackup))
	mux.HandleFunc("POST /api/parent/restore", mw.RequireParent(h.Parent.ImportBackup))

	mux.HandleFunc("GET /api/events", h.Events.Stream)

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", CSRFHeader},
		AllowCredentials: true,
	})

	return Logging(log)(metrics.Middleware(c.Handler(mux)))
}
