package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/auth"
	"github.com/KerenDoz/Event-Planner/internal/domain/session"
	"github.com/KerenDoz/Event-Planner/internal/domain/user"
)

type RefreshTokenStore interface {
	Create(ctx context.Context, row session.RefreshToken) error
	Get(ctx context.Context, id string) (session.RefreshToken, error)
	// Rotate revokes oldID (which must still be unrevoked) and inserts next atomically.
	Rotate(ctx context.Context, oldID string, next session.RefreshToken) error
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// Session is what the HTTP layer turns into cookies. RefreshToken is empty
// for non-persistent sessions.
type Session struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	Persistent       bool
}

type Sessions struct {
	jwt     *auth.Manager
	users   UserStore
	refresh RefreshTokenStore
	now     func() time.Time
}

func NewSessions(jwt *auth.Manager, users UserStore, refresh RefreshTokenStore) *Sessions {
	return &Sessions{jwt: jwt, users: users, refresh: refresh, now: time.Now}
}

func identityOf(u user.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Username: u.Username, Email: u.Email}
}

// IssueSession signs in u. Persistent sessions also get a stored refresh token.
func (s *Sessions) IssueSession(ctx context.Context, u user.User, persistent bool) (Session, error) {
	out, err := s.RefreshSession(u, false)
	if err != nil {
		return Session{}, err
	}

	if !persistent {
		return out, nil
	}

	raw, jti, expiresAt, err := s.jwt.GenerateRefreshToken(u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("generate refresh token: %w", err)
	}

	err = s.refresh.Create(ctx, session.RefreshToken{
		ID:        jti,
		UserID:    u.ID,
		TokenHash: s.jwt.HashRefreshToken(raw),
		ExpiresAt: expiresAt,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("store refresh token: %w", err)
	}

	out.RefreshToken = raw
	out.RefreshExpiresAt = expiresAt
	out.Persistent = true
	return out, nil
}

// RefreshSession re-signs the access token so changed claims show up
// without a new login. No refresh token is touched.
func (s *Sessions) RefreshSession(u user.User, persistent bool) (Session, error) {
	token, expiresAt, err := s.jwt.GenerateAccessToken(identityOf(u))
	if err != nil {
		return Session{}, fmt.Errorf("generate access token: %w", err)
	}

	return Session{
		AccessToken:     token,
		AccessExpiresAt: expiresAt,
		Persistent:      persistent,
	}, nil
}

// RotateSession exchanges a valid refresh token for a new pair.
func (s *Sessions) RotateSession(ctx context.Context, raw string) (Session, user.User, error) {
	claims, err := s.jwt.VerifyRefreshToken(raw)
	if err != nil {
		return Session{}, user.User{}, session.ErrInvalidSession
	}

	row, err := s.refresh.Get(ctx, claims.JTI)
	if err != nil {
		if errors.Is(err, session.ErrRefreshTokenNotFound) {
			return Session{}, user.User{}, session.ErrInvalidSession
		}
		return Session{}, user.User{}, err
	}

	// prevents token substitution
	if !row.Active(s.now().UTC()) || row.TokenHash != s.jwt.HashRefreshToken(raw) {
		return Session{}, user.User{}, session.ErrInvalidSession
	}

	u, err := s.users.GetByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Session{}, user.User{}, session.ErrInvalidSession
		}
		return Session{}, user.User{}, err
	}

	newRaw, newJTI, newExpiresAt, err := s.jwt.GenerateRefreshToken(u.ID)
	if err != nil {
		return Session{}, user.User{}, fmt.Errorf("generate refresh token: %w", err)
	}

	err = s.refresh.Rotate(ctx, row.ID, session.RefreshToken{
		ID:        newJTI,
		UserID:    u.ID,
		TokenHash: s.jwt.HashRefreshToken(newRaw),
		ExpiresAt: newExpiresAt,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, session.ErrRefreshTokenRevoked) || errors.Is(err, session.ErrRefreshTokenNotFound) {
			return Session{}, user.User{}, session.ErrInvalidSession
		}
		return Session{}, user.User{}, err
	}

	out, err := s.RefreshSession(u, true)
	if err != nil {
		return Session{}, user.User{}, err
	}
	out.RefreshToken = newRaw
	out.RefreshExpiresAt = newExpiresAt

	return out, u, nil
}

// RevokeSession is idempotent; unknown or malformed tokens are ignored.
func (s *Sessions) RevokeSession(ctx context.Context, raw string) error {
	claims, err := s.jwt.VerifyRefreshToken(raw)
	if err != nil {
		return nil
	}

	err = s.refresh.Revoke(ctx, claims.JTI)
	if err != nil && !errors.Is(err, session.ErrRefreshTokenNotFound) {
		return err
	}
	return nil
}

func (s *Sessions) RevokeAllSessions(ctx context.Context, userID string) error {
	return s.refresh.RevokeAllForUser(ctx, userID)
}
