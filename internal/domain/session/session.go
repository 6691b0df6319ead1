package session

import (
	"errors"
	"time"
)

// RefreshToken is the stored half of a persistent session. Only the
// HMAC of the raw token is kept.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *string
	CreatedAt  time.Time
}

func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token revoked")
	// any failure to resume a session; callers must not say which
	ErrInvalidSession = errors.New("invalid session")
)
