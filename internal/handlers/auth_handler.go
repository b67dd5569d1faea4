package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"familysafe/internal/apperr"
	"familysafe/internal/models"
	"familysafe/internal/security"
	"familysafe/internal/service"
)

// AuthHandler handles signup, login, OAuth and profile requests
type AuthHandler struct {
	authService   *service.AuthService
	rosterService *service.RosterService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, rosterService *service.RosterService) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		rosterService: rosterService,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileResponse struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Role               string `json:"role"`
	Phone              string `json:"phone"`
	AvatarURL          string `json:"avatar_url"`
	NeedsRoleSelection bool   `json:"needs_role_selection"`
}

func toProfileResponse(p *models.Profile) profileResponse {
	return profileResponse{
		ID:                 p.ID,
		Email:              p.Email,
		Name:               p.Name,
		Role:               p.Role,
		Phone:              p.Phone,
		AvatarURL:          p.AvatarURL,
		NeedsRoleSelection: p.NeedsRoleSelection(),
	}
}

// Register creates a new account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	profile, session, err := h.authService.Register(req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusCreated, toProfileResponse(profile))
}

// Login authenticates an email/password pair
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	profile, session, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusOK, toProfileResponse(profile))
}

// Logout ends the session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.authService.Logout(cookie.Value); err != nil {
			respondError(w, err)
			return
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the logged-in profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toProfileResponse(UserFromContext(r)))
}

// CompleteProfile finishes onboarding with the chosen name and role. A child
// account gets its member row here, and a failure creating it fails the
// whole step so the account never half-onboards.
func (h *AuthHandler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Role  string `json:"role"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	profile, err := h.authService.CompleteProfile(user.ID, req.Name, req.Role, req.Phone)
	if err != nil {
		respondError(w, err)
		return
	}
	if profile.Role == models.RoleChild {
		if _, err := h.rosterService.EnsureMember(profile); err != nil {
			respondError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, toProfileResponse(profile))
}

// UpdateProfile changes the mutable profile fields
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	user := UserFromContext(r)
	if err := h.authService.UpdateProfile(user.ID, req.Name, req.Phone); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// StartOAuth redirects to the provider's consent page
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	state := security.GenerateSessionID()

	http.SetCookie(w, security.CreateSessionCookie(r, "oauth_state", state, oauthStateExpiry()))
	url, err := h.authService.GetOAuthURL(provider, state)
	if err != nil {
		respondError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// OAuthCallback completes the provider login
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respondError(w, apperr.New(apperr.KindPermission, "oauth state mismatch"))
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, "oauth_state"))

	_, session, err := h.authService.HandleOAuthCallback(r.Context(), provider, r.URL.Query().Get("code"))
	if err != nil {
		respondError(w, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func oauthStateExpiry() time.Time {
	return time.Now().Add(10 * time.Minute)
}
