package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account and its public profile.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Bio          string             `bson:"bio" json:"bio"`
	PhoneNumber  string             `bson:"phone_number" json:"phone_number"`
	Location     string             `bson:"location" json:"location"`
	ProfileImage string             `bson:"profile_image,omitempty" json:"profile_image,omitempty"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`

	RefreshTokenHash string     `bson:"refresh_token_hash,omitempty" json:"-"`
	RefreshExpiresAt *time.Time `bson:"refresh_expires_at,omitempty" json:"-"`
}

// Identity is the authenticated caller. It is passed explicitly into every
// store-facing operation.
type Identity struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// IsZero reports whether no caller is signed in.
func (i Identity) IsZero() bool {
	return strings.TrimSpace(i.UserID) == ""
}

// Identity returns the identity of u.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID.Hex(), Email: u.Email, Username: u.Username}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Username string `json:"username" validate:"required,max=10,username"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// RefreshRequest exchanges a refresh token for a new session.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ProfileUpdateRequest carries the editable profile fields.
type ProfileUpdateRequest struct {
	Username     string `json:"username" validate:"required,max=10,username"`
	Bio          string `json:"bio" validate:"max=500"`
	PhoneNumber  string `json:"phone_number" validate:"max=30"`
	Location     string `json:"location" validate:"max=100"`
	ProfileImage string `json:"profile_image" validate:"omitempty,url"`
}

// PasswordChangeRequest changes the caller's password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// Claims represents JWT claims
type Claims struct {
	Identity
	Exp int64 `json:"exp"`
}

// NormalizeUsername lower-cases and trims a username the way profiles store it.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
