package user

import (
	"errors"
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
	// one message for unknown identifier and wrong password
	ErrInvalidLogin = errors.New("invalid login attempt")
)

const (
	UsernameMinLen    = 3
	UsernameMaxLen    = 20
	PasswordMinLength = 6
)

type RegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=20"`
	Email           string `json:"email" binding:"required,email,max=256"`
	Password        string `json:"password" binding:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" binding:"required"`
	Password        string `json:"password" binding:"required"`
	RememberMe      bool   `json:"rememberMe"`
}

type ManageRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
	Email    string `json:"email" binding:"required,email,max=256"`
}

type ChangeUsernameRequest struct {
	NewUsername     string `json:"newUsername" binding:"required,min=3,max=20"`
	CurrentPassword string `json:"currentPassword" binding:"required"`
}

type ChangeEmailRequest struct {
	NewEmail        string `json:"newEmail" binding:"required,email,max=256"`
	CurrentPassword string `json:"currentPassword" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword" binding:"required"`
	NewPassword        string `json:"newPassword" binding:"required,min=6,max=128"`
	ConfirmNewPassword string `json:"confirmNewPassword" binding:"required"`
}
