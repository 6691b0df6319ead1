package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/KerenDoz/Event-Planner/internal/domain/session"
	"github.com/KerenDoz/Event-Planner/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const refreshColumns = `id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at`

type RefreshTokensRepo struct {
	pool *pgxpool.Pool
	observer
}

func NewRefreshTokensRepo(pool *pgxpool.Pool, prom *observability.Prom) *RefreshTokensRepo {
	return &RefreshTokensRepo{pool: pool, observer: observer{prom: prom}}
}

func (r *RefreshTokensRepo) Create(ctx context.Context, row session.RefreshToken) error {
	return r.observe("refresh_tokens.create", func() error {
		return insertRefreshToken(ctx, r.pool, row)
	})
}

func (r *RefreshTokensRepo) Get(ctx context.Context, id string) (session.RefreshToken, error) {
	var row session.RefreshToken

	err := r.observe("refresh_tokens.get", func() error {
		return scanRefreshToken(r.pool.QueryRow(ctx,
			`SELECT `+refreshColumns+` FROM refresh_tokens WHERE id = $1`, id), &row)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.RefreshToken{}, session.ErrRefreshTokenNotFound
		}
		return session.RefreshToken{}, err
	}
	return row, nil
}

// Rotate revokes oldID and stores next in one transaction. The old row is
// locked so two concurrent refreshes cannot both succeed.
func (r *RefreshTokensRepo) Rotate(ctx context.Context, oldID string, next session.RefreshToken) error {
	return r.observe("refresh_tokens.rotate", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		var old session.RefreshToken
		err = scanRefreshToken(tx.QueryRow(ctx, `
			SELECT `+refreshColumns+`
			FROM refresh_tokens
			WHERE id = $1
			FOR UPDATE
		`, oldID), &old)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return session.ErrRefreshTokenNotFound
			}
			return err
		}

		if old.RevokedAt != nil {
			return session.ErrRefreshTokenRevoked
		}

		if _, err := tx.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = NOW(), replaced_by = $2
			WHERE id = $1
		`, oldID, next.ID); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}

		if err := insertRefreshToken(ctx, tx, next); err != nil {
			return fmt.Errorf("insert refresh token: %w", err)
		}

		return tx.Commit(ctx)
	})
}

func (r *RefreshTokensRepo) Revoke(ctx context.Context, id string) error {
	return r.observe("refresh_tokens.revoke", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = COALESCE(revoked_at, NOW())
			WHERE id = $1
		`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return session.ErrRefreshTokenNotFound
		}
		return nil
	})
}

func (r *RefreshTokensRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	return r.observe("refresh_tokens.revoke_all", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = NOW()
			WHERE user_id = $1 AND revoked_at IS NULL
		`, userID)
		return err
	})
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertRefreshToken(ctx context.Context, db execer, row session.RefreshToken) error {
	_, err := db.Exec(ctx,
		`INSERT INTO refresh_tokens (`+refreshColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		row.ID, row.UserID, row.TokenHash, row.ExpiresAt, row.RevokedAt, row.ReplacedBy, row.CreatedAt,
	)
	return err
}

func scanRefreshToken(row pgx.Row, out *session.RefreshToken) error {
	return row.Scan(
		&out.ID,
		&out.UserID,
		&out.TokenHash,
		&out.ExpiresAt,
		&out.RevokedAt,
		&out.ReplacedBy,
		&out.CreatedAt,
	)
}
