package client

import (
	"testing"

	"familysafe/internal/models"
)

func TestScreenFor(t *testing.T) {
	tests := []struct {
		name    string
		profile *models.Profile
		want    Screen
	}{
		{"logged out", nil, ScreenLanding},
		{"fresh account", &models.Profile{ID: "u1"}, ScreenRoleSelect},
		{"parent", &models.Profile{ID: "u1", Role: models.RoleParent}, ScreenParentHome},
		{"child", &models.Profile{ID: "u1", Role: models.RoleChild}, ScreenChildHome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScreenFor(tt.profile); got != tt.want {
				t.Errorf("ScreenFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScreenString(t *testing.T) {
	tests := []struct {
		screen Screen
		want   string
	}{
		{ScreenLanding, "landing"},
		{ScreenRoleSelect, "role-select"},
		{ScreenParentHome, "parent-home"},
		{ScreenChildHome, "child-home"},
		{Screen(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.screen.String(); got != tt.want {
			t.Errorf("Screen(%d).String() = %q, want %q", tt.screen, got, tt.want)
		}
	}
}
