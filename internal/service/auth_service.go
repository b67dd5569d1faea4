package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"familysafe/internal/apperr"
	"familysafe/internal/config"
	"familysafe/internal/models"
	"familysafe/internal/repository"
	"familysafe/internal/security"
	"familysafe/internal/validation"
)

// AuthService handles signup, login, OAuth and session lifecycle
type AuthService struct {
	profiles        *repository.ProfileRepository
	sessionDuration time.Duration
	googleOAuth     *oauth2.Config
	facebookOAuth   *oauth2.Config
}

// NewAuthService creates a new auth service
func NewAuthService(profiles *repository.ProfileRepository, cfg *config.Config) *AuthService {
	s := &AuthService{
		profiles:        profiles,
		sessionDuration: cfg.SessionDuration,
	}
	if cfg.GoogleClientID != "" {
		s.googleOAuth = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.OAuthRedirectBaseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	if cfg.FacebookClientID != "" {
		s.facebookOAuth = &oauth2.Config{
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
			RedirectURL:  cfg.OAuthRedirectBaseURL + "/auth/facebook/callback",
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		}
	}
	return s
}

// Register creates a new account from email and password. The role stays
// empty until the role-selection step.
func (s *AuthService) Register(email, password string) (*models.Profile, *models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, nil, err
	}

	existing, err := s.profiles.GetProfileByEmail(email)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindTransient, "failed to check email", err)
	}
	if existing != nil {
		return nil, nil, apperr.New(apperr.KindConflict, "email already registered")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindTransient, "failed to hash password", err)
	}

	profile, err := s.profiles.CreateProfile(uuid.New().String(), email, hash)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindTransient, "failed to create profile", err)
	}

	session, err := s.createSession(profile.ID)
	if err != nil {
		return nil, nil, err
	}
	return profile, session, nil
}

// Login authenticates an email/password pair
func (s *AuthService) Login(email, password string) (*models.Profile, *models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	profile, err := s.profiles.GetProfileByEmail(email)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindTransient, "failed to look up profile", err)
	}
	if profile == nil || !security.CheckPassword(password, profile.PasswordHash) {
		return nil, nil, apperr.New(apperr.KindPermission, "invalid email or password")
	}

	session, err := s.createSession(profile.ID)
	if err != nil {
		return nil, nil, err
	}
	return profile, session, nil
}

// Logout removes a session
func (s *AuthService) Logout(sessionID string) error {
	if err := s.profiles.DeleteSession(sessionID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to delete session", err)
	}
	return nil
}

// GetUserFromSession resolves a session id to its profile, rejecting
// expired sessions.
func (s *AuthService) GetUserFromSession(sessionID string) (*models.Profile, error) {
	session, err := s.profiles.GetSession(sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load session", err)
	}
	if session == nil || session.IsExpired() {
		return nil, apperr.New(apperr.KindPermission, "session invalid or expired")
	}
	profile, err := s.profiles.GetProfileByID(session.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load profile", err)
	}
	if profile == nil {
		return nil, apperr.New(apperr.KindPermission, "session invalid or expired")
	}
	return profile, nil
}

// CompleteProfile finishes onboarding by setting the chosen name and role
func (s *AuthService) CompleteProfile(userID, name, role, phone string) (*models.Profile, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidateRole(role); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetProfileByID(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load profile", err)
	}
	if profile == nil {
		return nil, apperr.New(apperr.KindNotFound, "profile not found")
	}
	if !profile.NeedsRoleSelection() {
		return nil, apperr.New(apperr.KindConflict, "role already chosen")
	}

	if err := s.profiles.CompleteProfile(userID, name, role, phone); err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to complete profile", err)
	}
	profile.Name = name
	profile.Role = role
	profile.Phone = phone
	return profile, nil
}

// UpdateProfile changes the mutable profile fields
func (s *AuthService) UpdateProfile(userID, name, phone string) error {
	if err := validation.ValidateName(name); err != nil {
		return err
	}
	if err := s.profiles.UpdateProfile(userID, strings.TrimSpace(name), phone); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to update profile", err)
	}
	return nil
}

// CleanupExpiredSessions removes sessions past their expiry
func (s *AuthService) CleanupExpiredSessions() error {
	return s.profiles.DeleteExpiredSessions()
}

func (s *AuthService) createSession(userID string) (*models.Session, error) {
	session, err := s.profiles.CreateSession(
		security.GenerateSessionID(),
		userID,
		time.Now().Add(s.sessionDuration),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to create session", err)
	}
	return session, nil
}

// OAuth providers

// GetOAuthURL returns the provider's consent URL for the given state
func (s *AuthService) GetOAuthURL(provider, state string) (string, error) {
	cfg, err := s.oauthConfig(provider)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// HandleOAuthCallback exchanges the code, resolves or creates the matching
// profile and opens a session for it.
func (s *AuthService) HandleOAuthCallback(ctx context.Context, provider, code string) (*models.Profile, *models.Session, error) {
	cfg, err := s.oauthConfig(provider)
	if err != nil {
		return nil, nil, err
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindPermission, "oauth exchange failed", err)
	}

	info, err := fetchOAuthUserInfo(ctx, cfg, provider, token)
	if err != nil {
		return nil, nil, err
	}

	profile, err := s.profiles.GetProfileByOAuth(provider, info.Subject)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindTransient, "failed to look up profile", err)
	}
	if profile == nil && info.Email != "" {
		// Same email registered with a password earlier: attach the identity.
		profile, err = s.profiles.GetProfileByEmail(strings.ToLower(info.Email))
		if err != nil {
			return nil, nil, apperr.Wrap(apperr.KindTransient, "failed to look up profile", err)
		}
		if profile != nil {
			if err := s.profiles.LinkOAuthProvider(profile.ID, provider, info.Subject); err != nil {
				return nil, nil, apperr.Wrap(apperr.KindTransient, "failed to link oauth identity", err)
			}
		}
	}
	if profile == nil {
		profile, err = s.profiles.CreateProfile(uuid.New().String(), strings.ToLower(info.Email), "")
		if err != nil {
			return nil, nil, apperr.Wrap(apperr.KindTransient, "failed to create profile", err)
		}
		if err := s.profiles.LinkOAuthProvider(profile.ID, provider, info.Subject); err != nil {
			return nil, nil, apperr.Wrap(apperr.KindTransient, "failed to link oauth identity", err)
		}
	}

	session, err := s.createSession(profile.ID)
	if err != nil {
		return nil, nil, err
	}
	return profile, session, nil
}

func (s *AuthService) oauthConfig(provider string) (*oauth2.Config, error) {
	switch provider {
	case "google":
		if s.googleOAuth == nil {
			return nil, apperr.New(apperr.KindValidation, "google login is not configured")
		}
		return s.googleOAuth, nil
	case "facebook":
		if s.facebookOAuth == nil {
			return nil, apperr.New(apperr.KindValidation, "facebook login is not configured")
		}
		return s.facebookOAuth, nil
	}
	return nil, apperr.Validationf("unknown oauth provider %q", provider)
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

func fetchOAuthUserInfo(ctx context.Context, cfg *oauth2.Config, provider string, token *oauth2.Token) (*oauthUserInfo, error) {
	var url string
	switch provider {
	case "google":
		url = "https://www.googleapis.com/oauth2/v2/userinfo"
	case "facebook":
		url = "https://graph.facebook.com/me?fields=id,name,email"
	default:
		return nil, apperr.Validationf("unknown oauth provider %q", provider)
	}

	client := cfg.Client(ctx, token)
	resp, err := client.Get(url)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to fetch oauth user info", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.KindTransient, fmt.Sprintf("oauth user info returned status %d", resp.StatusCode))
	}

	var raw struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to decode oauth user info", err)
	}
	if raw.ID == "" {
		return nil, apperr.New(apperr.KindPermission, "oauth user info missing subject")
	}
	return &oauthUserInfo{Subject: raw.ID, Email: raw.Email, Name: raw.Name}, nil
}
