package memory

import (
	"context"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/domain/session"
)

type RefreshTokensRepo struct {
	s *Store
}

func (r *RefreshTokensRepo) Create(ctx context.Context, row session.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.refresh[row.ID] = row
	return nil
}

func (r *RefreshTokensRepo) Get(ctx context.Context, id string) (session.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.refresh[id]
	if !ok {
		return session.RefreshToken{}, session.ErrRefreshTokenNotFound
	}
	return row, nil
}

func (r *RefreshTokensRepo) Rotate(ctx context.Context, oldID string, next session.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.refresh[oldID]
	if !ok {
		return session.ErrRefreshTokenNotFound
	}
	if old.RevokedAt != nil {
		return session.ErrRefreshTokenRevoked
	}

	now := time.Now().UTC()
	replacedBy := next.ID
	old.RevokedAt = &now
	old.ReplacedBy = &replacedBy
	r.s.refresh[oldID] = old
	r.s.refresh[next.ID] = next

	return nil
}

func (r *RefreshTokensRepo) Revoke(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.refresh[id]
	if !ok {
		return session.ErrRefreshTokenNotFound
	}
	if row.RevokedAt == nil {
		now := time.Now().UTC()
		row.RevokedAt = &now
		r.s.refresh[id] = row
	}
	return nil
}

func (r *RefreshTokensRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	for id, row := range r.s.refresh {
		if row.UserID == userID && row.RevokedAt == nil {
			row.RevokedAt = &now
			r.s.refresh[id] = row
		}
	}
	return nil
}
