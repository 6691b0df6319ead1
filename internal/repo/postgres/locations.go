package postgres

import (
	"context"
	"errors"

	"github.com/KerenDoz/Event-Planner/internal/domain/location"
	"github.com/KerenDoz/Event-Planner/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const locationColumns = `id, name, city, address, created_at, updated_at`

type LocationsRepo struct {
	pool *pgxpool.Pool
	observer
}

func NewLocationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *LocationsRepo {
	return &LocationsRepo{pool: pool, observer: observer{prom: prom}}
}

func scanLocation(row pgx.Row, l *location.Location) error {
	return row.Scan(&l.ID, &l.Name, &l.City, &l.Address, &l.CreatedAt, &l.UpdatedAt)
}

func (r *LocationsRepo) List(ctx context.Context) ([]location.Location, error) {
	out := make([]location.Location, 0)

	err := r.observe("locations.list", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+locationColumns+`
			FROM locations
			ORDER BY city ASC, name ASC, id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var l location.Location
			if err := scanLocation(rows, &l); err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LocationsRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.observe("locations.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM locations`).Scan(&n)
	})
	return n, err
}

func (r *LocationsRepo) GetByID(ctx context.Context, id int64) (location.Location, error) {
	var l location.Location

	err := r.observe("locations.get_by_id", func() error {
		return scanLocation(r.pool.QueryRow(ctx,
			`SELECT `+locationColumns+` FROM locations WHERE id = $1`, id), &l)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return location.Location{}, location.ErrNotFound
		}
		return location.Location{}, err
	}
	return l, nil
}

func (r *LocationsRepo) Create(ctx context.Context, in location.Location) (location.Location, error) {
	var l location.Location

	err := r.observe("locations.create", func() error {
		return scanLocation(r.pool.QueryRow(ctx, `
			INSERT INTO locations (name, city, address) VALUES ($1, $2, $3)
			RETURNING `+locationColumns,
			in.Name, in.City, in.Address), &l)
	})

	if err != nil {
		return location.Location{}, err
	}
	return l, nil
}

func (r *LocationsRepo) Update(ctx context.Context, in location.Location) (location.Location, error) {
	var l location.Location

	err := r.observe("locations.update", func() error {
		return scanLocation(r.pool.QueryRow(ctx, `
			UPDATE locations
			SET name = $2, city = $3, address = $4, updated_at = NOW()
			WHERE id = $1
			RETURNING `+locationColumns,
			in.ID, in.Name, in.City, in.Address), &l)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return location.Location{}, location.ErrNotFound
		}
		return location.Location{}, err
	}
	return l, nil
}

func (r *LocationsRepo) Delete(ctx context.Context, id int64) error {
	return r.observe("locations.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
		if err != nil {
			if isForeignKeyViolation(err) {
				return location.ErrInUse
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return location.ErrNotFound
		}
		return nil
	})
}

func (r *LocationsRepo) InUse(ctx context.Context, id int64) (bool, error) {
	var used bool
	err := r.observe("locations.in_use", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM events WHERE location_id = $1)`, id,
		).Scan(&used)
	})
	return used, err
}
