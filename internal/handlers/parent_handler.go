package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"vocabhero/internal/security"
	"vocabhero/internal/service"
)

// ParentHandler handles PIN login, progress reports and backups
type ParentHandler struct {
	middleware *Middleware
	progress   *service.ProgressService
	reports    *service.ReportService
	backup     *service.BackupService
	log        *zap.Logger
}

func NewParentHandler(middleware *Middleware, progress *service.ProgressService, reports *service.ReportService, backup *service.BackupService, log *zap.Logger) *ParentHandler {
	return &ParentHandler{
		middleware: middleware,
		progress:   progress,
		reports:    reports,
		backup:     backup,
		log:        log,
	}
}

type loginResponse struct {
	Locked    bool      `json:"locked"`
	Token     string    `json:"token,omitempty"`
	CSRFToken string    `json:"csrfToken,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// Login exchanges the parent PIN for a token, also set as a cookie
func (h *ParentHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.middleware.ParentLocked() {
		respondJSON(w, http.StatusOK, loginResponse{Locked: false})
		return
	}

	var in struct {
		PIN string `json:"pin"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	if err := security.CheckPIN(h.middleware.pinHash, in.PIN); err != nil {
		h.log.Warn("failed parent login", zap.String("ip", security.GetClientIP(r)))
		respondWithError(w, r, h.log, err)
		return
	}

	token, id, expires, err := h.middleware.tokens.Issue()
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	csrfToken, err := h.middleware.csrf.GenerateToken(id)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	http.SetCookie(w, security.CreateTokenCookie(r, token, expires))
	h.log.Info("parent unlocked", zap.String("ip", security.GetClientIP(r)))
	respondJSON(w, http.StatusOK, loginResponse{Locked: true, Token: token, CSRFToken: csrfToken, ExpiresAt: expires})
}

func (h *ParentHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ParentHandler) Progress(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.progress.Summary(r.Context()))
}

// SendReport emails the active profile's progress
func (h *ParentHandler) SendReport(w http.ResponseWriter, r *http.Request) {
	var in struct {
		To string `json:"to"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	if err := h.reports.Send(r.Context(), in.To); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	h.log.Info("progress report requested", parentSession(r))
	respondJSON(w, http.StatusOK, map[string]bool{"sent": h.reports.IsEnabled()})
}

// ExportBackup downloads every persisted key as JSON
func (h *ParentHandler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("vocabhero-backup-%s.json", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if err := h.backup.Export(r.Context(), w); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	h.log.Info("backup downloaded", parentSession(r))
}

// ImportBackup replaces the store with an uploaded backup
func (h *ParentHandler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := h.backup.Import(r.Context(), r.Body); err != nil {
		h.log.Warn("backup import failed", parentSession(r), zap.Error(err))
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.log.Info("backup restored", parentSession(r))
	w.WriteHeader(http.StatusNoContent)
}

// parentSession names the token that unlocked the request, for audit logs
func parentSession(r *http.Request) zap.Field {
	if claims := GetParentFromContext(r.Context()); claims != nil {
		return zap.String("parent_session", claims.ID)
	}
	return zap.String("parent_session", "unlocked")
}
