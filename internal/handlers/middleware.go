package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"vocabhero/internal/config"
	"vocabhero/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const ParentContextKey ContextKey = "parent"

// CSRFHeader must echo the login's csrfToken on cookie-authenticated writes
const CSRFHeader = "X-CSRF-Token"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	pinHash string
	tokens  *security.TokenIssuer
	csrf    *security.CSRFGenerator
	limiter *security.RateLimiter
	log     *zap.Logger
}

// NewMiddleware creates a new middleware instance. limiter may be nil.
func NewMiddleware(cfg config.ParentConfig, limiter *security.RateLimiter, log *zap.Logger) *Middleware {
	duration := cfg.TokenDuration
	if duration <= 0 {
		duration = 12 * time.Hour
	}
	return &Middleware{
		pinHash: cfg.PinHash,
		tokens:  security.NewTokenIssuer(cfg.JWTSecret, duration),
		csrf:    security.NewCSRFGenerator(cfg.JWTSecret),
		limiter: limiter,
		log:     log,
	}
}

// ParentLocked reports whether parent actions need a PIN
func (m *Middleware) ParentLocked() bool {
	return m.pinHash != ""
}

// RequireParent guards parent-only actions. Tokens come from an
// Authorization bearer header or the parent cookie; cookie callers must
// also send the CSRF header on anything but GET.
func (m *Middleware) RequireParent(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.ParentLocked() {
			next(w, r)
			return
		}

		token, fromCookie := bearerToken(r), false
		if token == "" {
			if cookie, err := r.Cookie(security.ParentCookieName); err == nil {
				token, fromCookie = cookie.Value, true
			}
		}
		if token == "" {
			respondWithError(w, r, m.log, security.ErrInvalidToken)
			return
		}

		claims, err := m.tokens.Parse(token)
		if err != nil {
			if fromCookie {
				http.SetCookie(w, security.CreateDeleteCookie(r))
			}
			respondWithError(w, r, m.log, err)
			return
		}

		if fromCookie && r.Method != http.MethodGet && !m.csrf.ValidateToken(claims.ID, r.Header.Get(CSRFHeader)) {
			m.log.Warn("csrf validation failed", zap.String("path", r.URL.Path), zap.String("ip", security.GetClientIP(r)))
			respondWithError(w, r, m.log, errCSRF)
			return
		}

		ctx := context.WithValue(r.Context(), ParentContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit applies the per-IP limiter to gateway-backed endpoints
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondWithError(w, r, m.log, errRateLimited)
			return
		}
		next(w, r)
	}
}

// GetParentFromContext returns the verified parent claims, or nil when
// parent actions are unlocked
func GetParentFromContext(ctx context.Context) *security.ParentClaims {
	claims, ok := ctx.Value(ParentContextKey).(*security.ParentClaims)
	if !ok {
		return nil
	}
	return claims
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

type loggingRecorder struct {
	http.ResponseWriter
	status int
}

func (r *loggingRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *loggingRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *loggingRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Logging middleware logs HTTP requests
func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &loggingRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("ip", security.GetClientIP(r)))
		})
	}
}
