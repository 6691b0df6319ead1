package postgres

import (
	"context"
	"errors"

	"github.com/KerenDoz/Event-Planner/internal/domain/category"
	"github.com/KerenDoz/Event-Planner/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoriesRepo struct {
	pool *pgxpool.Pool
	observer
}

func NewCategoriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CategoriesRepo {
	return &CategoriesRepo{pool: pool, observer: observer{prom: prom}}
}

func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, error) {
	out := make([]category.Category, 0)

	err := r.observe("categories.list", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT id, name, created_at, updated_at
			FROM categories
			ORDER BY name ASC, id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c category.Category
			if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CategoriesRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.observe("categories.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n)
	})
	return n, err
}

func (r *CategoriesRepo) GetByID(ctx context.Context, id int64) (category.Category, error) {
	var c category.Category

	err := r.observe("categories.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, created_at, updated_at FROM categories WHERE id = $1`, id,
		).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category.Category{}, category.ErrNotFound
		}
		return category.Category{}, err
	}
	return c, nil
}

func (r *CategoriesRepo) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.observe("categories.name_exists", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM categories WHERE name = $1 AND id <> $2)`,
			name, excludeID,
		).Scan(&exists)
	})
	return exists, err
}

func (r *CategoriesRepo) Create(ctx context.Context, name string) (category.Category, error) {
	var c category.Category

	err := r.observe("categories.create", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO categories (name) VALUES ($1)
			RETURNING id, name, created_at, updated_at
		`, name).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return category.Category{}, category.ErrDuplicateName
		}
		return category.Category{}, err
	}
	return c, nil
}

func (r *CategoriesRepo) Update(ctx context.Context, id int64, name string) (category.Category, error) {
	var c category.Category

	err := r.observe("categories.update", func() error {
		return r.pool.QueryRow(ctx, `
			UPDATE categories
			SET name = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING id, name, created_at, updated_at
		`, id, name).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	})

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return category.Category{}, category.ErrNotFound
		case IsUniqueViolation(err):
			return category.Category{}, category.ErrDuplicateName
		}
		return category.Category{}, err
	}
	return c, nil
}

func (r *CategoriesRepo) Delete(ctx context.Context, id int64) error {
	return r.observe("categories.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			if isForeignKeyViolation(err) {
				return category.ErrInUse
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return category.ErrNotFound
		}
		return nil
	})
}

func (r *CategoriesRepo) InUse(ctx context.Context, id int64) (bool, error) {
	var used bool
	err := r.observe("categories.in_use", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM events WHERE category_id = $1)`, id,
		).Scan(&used)
	})
	return used, err
}
