package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"familysafe/internal/apperr"
	"familysafe/internal/models"
	"familysafe/internal/security"
	"familysafe/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// UserContextKey holds the authenticated profile for the request
const UserContextKey ContextKey = "user"

// SessionCookieName is the auth cookie set on login
const SessionCookieName = "session_id"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	rateLimiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService) *Middleware {
	return &Middleware{
		authService: authService,
		rateLimiter: security.NewRateLimiter(20, time.Minute),
	}
}

// RequireAuth rejects requests without a valid session and stores the
// profile in the request context.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			respondError(w, apperr.New(apperr.KindPermission, "not logged in"))
			return
		}

		user, err := m.authService.GetUserFromSession(cookie.Value)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
			respondError(w, apperr.New(apperr.KindPermission, "session invalid or expired"))
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole rejects authenticated users whose role does not match.
// Accounts still in role selection match nothing.
func (m *Middleware) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r)
		if user == nil || user.Role != role {
			respondError(w, apperr.New(apperr.KindPermission, "wrong account role"))
			return
		}
		next(w, r)
	})
}

// RateLimit applies the per-IP token bucket
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.rateLimiter.Allow(security.GetClientIP(r)) {
			respondJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "too many requests",
			})
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// UserFromContext pulls the authenticated profile out of the request context
func UserFromContext(r *http.Request) *models.Profile {
	user, _ := r.Context().Value(UserContextKey).(*models.Profile)
	return user
}
