package handlers

import (
	"net/http"

	"familysafe/internal/apperr"
	"familysafe/internal/repository"
	"familysafe/internal/service"
)

// AvatarHandler accepts avatar image uploads
type AvatarHandler struct {
	avatarService *service.AvatarService
	profiles      *repository.ProfileRepository
	maxSize       int64
}

// NewAvatarHandler creates a new avatar handler
func NewAvatarHandler(avatarService *service.AvatarService, profiles *repository.ProfileRepository, maxSize int64) *AvatarHandler {
	return &AvatarHandler{
		avatarService: avatarService,
		profiles:      profiles,
		maxSize:       maxSize,
	}
}

// Upload stores a new avatar for the caller and swaps the profile to it.
// The previous stored avatar is removed once the new URL is durable.
func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "upload too large or malformed"))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "avatar file is required"))
		return
	}
	defer file.Close()

	user := UserFromContext(r)
	url, err := h.avatarService.Store(header.Filename, header.Size, file)
	if err != nil {
		respondError(w, err)
		return
	}

	oldURL := user.AvatarURL
	if err := h.profiles.UpdateAvatarURL(user.ID, url); err != nil {
		respondError(w, apperr.Wrap(apperr.KindTransient, "failed to update avatar", err))
		return
	}
	if oldURL != "" {
		if err := h.avatarService.Remove(oldURL); err != nil {
			// The new avatar is already live; the orphan file is harmless.
			respondJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}
