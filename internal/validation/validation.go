package validation

import (
	"regexp"
	"strings"

	"familysafe/internal/apperr"
	"familysafe/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// uuidRegex matches the canonical 36-character UUID form. Linking a child
// validates shape only; there is no possession proof.
var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.New(apperr.KindValidation, "email is required")
	}
	if !emailRegex.MatchString(email) {
		return apperr.New(apperr.KindValidation, "invalid email format")
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return apperr.New(apperr.KindValidation, "password is required")
	}
	if len(password) < 8 {
		return apperr.New(apperr.KindValidation, "password must be at least 8 characters")
	}
	return nil
}

// ValidateName checks if a display name is acceptable
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.New(apperr.KindValidation, "name is required")
	}
	if len(name) > 100 {
		return apperr.New(apperr.KindValidation, "name must be at most 100 characters")
	}
	return nil
}

// ValidateRole checks a role selection
func ValidateRole(role string) error {
	if role != models.RoleParent && role != models.RoleChild {
		return apperr.Validationf("role must be %q or %q", models.RoleParent, models.RoleChild)
	}
	return nil
}

// ValidateUserID checks that an identifier has UUID shape. Used when a
// parent pastes a child's id.
func ValidateUserID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.New(apperr.KindValidation, "user id is required")
	}
	if !uuidRegex.MatchString(strings.ToLower(id)) {
		return apperr.Validationf("invalid user id format (%d/36 characters)", len(id))
	}
	return nil
}

// ValidateAlertType checks an alert type value
func ValidateAlertType(t string) error {
	switch t {
	case models.AlertSOS, models.AlertLost, models.AlertArrival:
		return nil
	}
	return apperr.Validationf("unknown alert type %q", t)
}

// ValidateCoordinates checks a latitude/longitude pair
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return apperr.Validationf("latitude %v out of range", lat)
	}
	if lng < -180 || lng > 180 {
		return apperr.Validationf("longitude %v out of range", lng)
	}
	return nil
}
