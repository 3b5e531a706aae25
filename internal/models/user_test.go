package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIdentity_IsZero(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
		expected bool
	}{
		{"empty identity", Identity{}, true},
		{"blank user id", Identity{UserID: "  ", Email: "a@b.io"}, true},
		{"signed in", Identity{UserID: "u1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.identity.IsZero(); got != tt.expected {
				t.Errorf("IsZero() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUser_Identity(t *testing.T) {
	id := primitive.NewObjectID()
	user := &User{ID: id, Email: "driver@example.com", Username: "driver"}

	got := user.Identity()
	if got.UserID != id.Hex() {
		t.Errorf("Expected UserID %s, got %s", id.Hex(), got.UserID)
	}
	if got.Email != "driver@example.com" {
		t.Errorf("Expected Email to be 'driver@example.com', got %s", got.Email)
	}
	if got.Username != "driver" {
		t.Errorf("Expected Username to be 'driver', got %s", got.Username)
	}
}

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"Driver_1", "driver_1"},
		{"  MIXED  ", "mixed"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUsername(tt.in); got != tt.out {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", tt.in, got, tt.out)
		}
	}
}
