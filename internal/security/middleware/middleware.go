package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aryan0dhankhar/outreach/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/outreach/internal/security"
	"github.com/aryan0dhankhar/outreach/internal/security/audit"
	"github.com/aryan0dhankhar/outreach/internal/security/auth"
	"github.com/aryan0dhankhar/outreach/internal/security/ratelimit"
)

// publicPaths are served without a session
var publicPaths = map[string]bool{
	"/healthz":     true,
	"/readyz":      true,
	"/metrics":     true,
	"/api/login":   true,
	"/api/logout":  true,
	"/api/members": true,
}

// IsPublic reports whether path is served without a session
func IsPublic(path string) bool {
	return publicPaths[path]
}

// Session authenticates the caller from a bearer token or the session cookie
// and attaches a security.CallerIdentity to the request context.
func Session(tm *auth.TokenManager, auditLog *audit.Logger, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublic(r.URL.Path) || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, err := sessionToken(r)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "missing session")
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				log.Debug("session rejected", slog.String("error", err.Error()))
				auditLog.LogDenied(r.Context(), "", "invalid session token")
				writeJSONError(w, http.StatusUnauthorized, "invalid session")
				return
			}

			ctx := security.WithIdentity(r.Context(), security.CallerIdentity{Actor: claims.Actor})
			ctx = logger.WithActor(ctx, claims.Actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		return auth.ExtractToken(header)
	}
	cookie, err := r.Cookie(auth.SessionCookie)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// StrictRoute is a path with its own tighter rate limit
type StrictRoute struct {
	Path   string
	Max    int
	Window time.Duration
}

// RateLimit limits requests per actor, or per client address before login
func RateLimit(limiter *ratelimit.Limiter, strict []StrictRoute, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			key := "ip:" + clientIP(r)
			if caller, ok := security.IdentityFromContext(r.Context()); ok {
				key = "actor:" + caller.Actor
			}

			for _, route := range strict {
				if r.URL.Path == route.Path && !limiter.AllowStrict(key+":"+route.Path, route.Max, route.Window) {
					log.Warn("strict rate limit exceeded", slog.String("key", key), slog.String("path", r.URL.Path))
					writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
					return
				}
			}

			if !limiter.Allow(key) {
				log.Warn("rate limit exceeded", slog.String("key", key))
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Audit records every state-changing request with its outcome
func Audit(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			actor := ""
			if caller, ok := security.IdentityFromContext(r.Context()); ok {
				actor = caller.Actor
			}
			status := "success"
			if ww.status >= 400 {
				status = "failed"
			}
			auditLog.LogAction(r.Context(), actor, strings.ToLower(r.Method), r.URL.Path, "", status, http.StatusText(ww.status))
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
