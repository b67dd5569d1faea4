package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"familysafe/internal/apperr"
)

// AvatarService stores uploaded avatar images on disk under the static file
// root and hands back the public URL they will be served from.
type AvatarService struct {
	staticPath    string
	publicBaseURL string
	maxSize       int64
}

// NewAvatarService creates a new avatar service
func NewAvatarService(staticPath, publicBaseURL string, maxSize int64) *AvatarService {
	return &AvatarService{
		staticPath:    staticPath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		maxSize:       maxSize,
	}
}

var avatarExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Store saves an uploaded image and returns its public URL. The stored name
// is a fresh UUID so uploads never collide or overwrite each other.
func (s *AvatarService) Store(filename string, size int64, r io.Reader) (string, error) {
	if size > s.maxSize {
		return "", apperr.Validationf("file too large (max %d bytes)", s.maxSize)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !avatarExtensions[ext] {
		return "", apperr.Validationf("unsupported image type %q", ext)
	}

	dir := filepath.Join(s.staticPath, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Wrap(apperr.KindTransient, "failed to create avatar directory", err)
	}

	name := uuid.New().String() + ext
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", apperr.Wrap(apperr.KindTransient, "failed to create avatar file", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(r, s.maxSize)); err != nil {
		os.Remove(path)
		return "", apperr.Wrap(apperr.KindTransient, "failed to write avatar file", err)
	}

	return fmt.Sprintf("%s/static/avatars/%s", s.publicBaseURL, name), nil
}

// Remove deletes a stored avatar by its public URL. Unknown URLs are
// ignored; the profile may reference an external image.
func (s *AvatarService) Remove(avatarURL string) error {
	prefix := s.publicBaseURL + "/static/avatars/"
	if !strings.HasPrefix(avatarURL, prefix) {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(avatarURL, prefix))
	path := filepath.Join(s.staticPath, "avatars", name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperr.Wrap(apperr.KindTransient, "failed to remove avatar file", err)
	}
	return nil
}
