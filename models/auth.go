package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	// SuperAdminEmail is the only account allowed to use admin operations,
	// and only while it also carries the admin role.
	SuperAdminEmail = "admin@patente.com"

	DefaultSessionTTL = 7 * 24 * time.Hour

	MinNameLength = 2
)

// User represents a registered learner or the administrator
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"passwordHash,omitempty"`
	Name         string       `json:"name"`
	Avatar       string       `json:"avatar"`
	Role         string       `json:"role"`
	IsBanned     bool         `json:"isBanned"`
	CreatedAt    time.Time    `json:"createdAt"`
	LastLogin    time.Time    `json:"lastLogin"`
	Progress     UserProgress `json:"progress"`
	Settings     UserSettings `json:"settings"`
}

// IsSuperAdmin requires both the admin role and the allow-listed email.
func (u *User) IsSuperAdmin() bool {
	return u != nil && u.Role == RoleAdmin && u.Email == SuperAdminEmail
}

// Safe returns a copy without the password digest.
func (u *User) Safe() *User {
	c := *u
	c.PasswordHash = ""
	return &c
}

// AuthToken is a persisted bearer session
type AuthToken struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	UserID       string    `json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func (t *AuthToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// RegisterRequest for creating an account
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest for authentication
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	User         *User     `json:"user"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ProfileRequest for updating the public profile. Nil fields are left alone.
type ProfileRequest struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// NewUser builds a freshly registered account with default progress and
// settings.
func NewUser(id, email, passwordHash, name string, now time.Time) *User {
	role := RoleUser
	if email == SuperAdminEmail {
		role = RoleAdmin
	}
	return &User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		LastLogin:    now,
		Progress:     NewProgress(),
		Settings:     DefaultSettings(),
	}
}
