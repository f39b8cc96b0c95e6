package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"vocabhero/internal/gateway"
	"vocabhero/internal/models"
	"vocabhero/internal/security"
	"vocabhero/internal/service"
	"vocabhero/internal/store"
)

var (
	errCSRF        = errors.New("csrf token mismatch")
	errRateLimited = errors.New("rate limit exceeded")
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// statusFor maps an error to its HTTP status and the message shown to the user
func statusFor(err error) (int, errorResponse) {
	var verr models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field}
	case errors.Is(err, security.ErrInvalidPIN), errors.Is(err, security.ErrInvalidToken):
		return http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized}
	case errors.Is(err, errCSRF):
		return http.StatusForbidden, errorResponse{Error: ErrForbidden}
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, errorResponse{Error: ErrTooManyRequests}
	case errors.Is(err, store.ErrProfileNotFound),
		errors.Is(err, store.ErrWordNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrNoActiveRound):
		return http.StatusNotFound, errorResponse{Error: err.Error()}
	case errors.Is(err, service.ErrHintInProgress),
		errors.Is(err, service.ErrValidationInProgress),
		errors.Is(err, service.ErrGenerateInProgress),
		errors.Is(err, service.ErrRoundFinished),
		errors.Is(err, service.ErrRoundReplaced):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	case errors.Is(err, gateway.ErrAudioUnavailable):
		return http.StatusServiceUnavailable, errorResponse{Error: ErrAudioUnavailable}
	case errors.Is(err, gateway.ErrRemote), errors.Is(err, gateway.ErrContentShape):
		return http.StatusBadGateway, errorResponse{Error: ErrAIUnavailable}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorResponse{Error: ErrAIUnavailable}
	default:
		return http.StatusInternalServerError, errorResponse{Error: ErrInternalServerError}
	}
}

func respondWithError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		log.Debug("client went away", zap.String("path", r.URL.Path))
		return
	}

	status, body := statusFor(err)
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable:
		log.Warn("ai gateway failure", zap.String("path", r.URL.Path), zap.Error(err))
	default:
		log.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	respondJSON(w, status, body)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return models.ValidationError{Field: "body", Message: ErrInvalidRequestBody}
	}
	return nil
}
