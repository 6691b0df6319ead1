package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/domain/category"
	"github.com/KerenDoz/Event-Planner/internal/domain/event"
	"github.com/KerenDoz/Event-Planner/internal/domain/location"
	"github.com/KerenDoz/Event-Planner/internal/domain/user"
	"github.com/KerenDoz/Event-Planner/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, title, description, start_date, end_date, capacity, is_public,
	category_id, location_id, organizer_id, created_at, updated_at`

const summarySelect = `
	SELECT e.id, e.title, e.start_date, c.name, l.city, e.is_public
	FROM events e
	JOIN categories c ON c.id = e.category_id
	JOIN locations l ON l.id = e.location_id`

type EventsRepo struct {
	pool *pgxpool.Pool
	observer
}

// constructor function

func NewEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{
		pool:     pool,
		observer: observer{prom: prom},
	}
}

func scanEvent(row pgx.Row, e *event.Event) error {
	return row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.StartDate,
		&e.EndDate,
		&e.Capacity,
		&e.IsPublic,
		&e.CategoryID,
		&e.LocationID,
		&e.OrganizerID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}

func (r *EventsRepo) Create(ctx context.Context, in event.Event) (event.Event, error) {
	var e event.Event

	err := r.observe("events.create", func() error {
		return scanEvent(r.pool.QueryRow(ctx, `
			INSERT INTO events (title, description, start_date, end_date, capacity, is_public,
				category_id, location_id, organizer_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING `+eventColumns,
			in.Title, in.Description, in.StartDate, in.EndDate, in.Capacity, in.IsPublic,
			in.CategoryID, in.LocationID, in.OrganizerID,
		), &e)
	})

	if err != nil {
		return event.Event{}, mapEventWriteError(err)
	}
	return e, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id int64) (event.Event, error) {
	var e event.Event

	err := r.observe("events.get_by_id", func() error {
		return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id), &e)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}

	return e, nil
}

func (r *EventsRepo) GetDetails(ctx context.Context, id int64) (event.Details, error) {
	var d event.Details

	err := r.observe("events.get_details", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT e.id, e.title, e.description, e.start_date, e.end_date, e.capacity, e.is_public,
				c.name, l.name, l.city, l.address, e.organizer_id, u.username
			FROM events e
			JOIN categories c ON c.id = e.category_id
			JOIN locations l ON l.id = e.location_id
			JOIN users u ON u.id = e.organizer_id
			WHERE e.id = $1
		`, id).Scan(
			&d.ID,
			&d.Title,
			&d.Description,
			&d.StartDate,
			&d.EndDate,
			&d.Capacity,
			&d.IsPublic,
			&d.CategoryName,
			&d.LocationName,
			&d.City,
			&d.Address,
			&d.OrganizerID,
			&d.OrganizerUsername,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Details{}, event.ErrNotFound
		}
		return event.Details{}, err
	}
	return d, nil
}

// Update rewrites the editable fields. The organizer column is never touched.
func (r *EventsRepo) Update(ctx context.Context, in event.Event) (event.Event, error) {
	var e event.Event

	err := r.observe("events.update", func() error {
		return scanEvent(r.pool.QueryRow(ctx, `
			UPDATE events
				SET title = $2,
					description = $3,
					start_date = $4,
					end_date = $5,
					capacity = $6,
					is_public = $7,
					category_id = $8,
					location_id = $9,
					updated_at = NOW()
			WHERE id = $1
			RETURNING `+eventColumns,
			in.ID,
			in.Title,
			in.Description,
			in.StartDate,
			in.EndDate,
			in.Capacity,
			in.IsPublic,
			in.CategoryID,
			in.LocationID,
		), &e)
	})

	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, mapEventWriteError(err)
	}

	return e, nil
}

func (r *EventsRepo) Delete(ctx context.Context, id int64) error {
	return r.observe("events.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		if err != nil {
			return err
		}

		// if no rows were deleted as a result return a not found error
		if tag.RowsAffected() == 0 {
			return event.ErrNotFound
		}
		return nil
	})
}

func (r *EventsRepo) ListPublic(ctx context.Context, f event.ListFilter, now time.Time) ([]event.Summary, error) {
	query, args := buildPublicListQuery(f, now)

	var out []event.Summary
	err := r.observe("events.list_public", func() error {
		var err error
		out, err = r.querySummaries(ctx, query, args...)
		return err
	})
	return out, err
}

func (r *EventsRepo) ListByOrganizer(ctx context.Context, organizerID string) ([]event.Summary, error) {
	var out []event.Summary
	err := r.observe("events.list_by_organizer", func() error {
		var err error
		out, err = r.querySummaries(ctx,
			summarySelect+` WHERE e.organizer_id = $1 ORDER BY e.start_date ASC, e.id ASC`,
			organizerID,
		)
		return err
	})
	return out, err
}

// buildPublicListQuery composes the public listing predicates in a fixed
// order: visibility, upcoming, title search, category.
func buildPublicListQuery(f event.ListFilter, now time.Time) (string, []any) {
	conds := []string{"e.is_public = TRUE"}
	var args []any

	argsPosition := 1

	if f.UpcomingOnly {
		conds = append(conds, fmt.Sprintf("e.start_date >= $%d", argsPosition))
		args = append(args, now)
		argsPosition++
	}

	// substring match, case-sensitive
	if f.Search != nil {
		conds = append(conds, fmt.Sprintf("strpos(e.title, $%d) > 0", argsPosition))
		args = append(args, *f.Search)
		argsPosition++
	}

	if f.CategoryID != nil {
		conds = append(conds, fmt.Sprintf("e.category_id = $%d", argsPosition))
		args = append(args, *f.CategoryID)
	}

	query := summarySelect + " WHERE " + strings.Join(conds, " AND ") +
		" ORDER BY e.start_date ASC, e.id ASC"

	return query, args
}

func (r *EventsRepo) querySummaries(ctx context.Context, query string, args ...any) ([]event.Summary, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	output := make([]event.Summary, 0)
	for rows.Next() {
		var s event.Summary
		if err := rows.Scan(&s.ID, &s.Title, &s.StartDate, &s.CategoryName, &s.City, &s.IsPublic); err != nil {
			return nil, err
		}
		output = append(output, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return output, nil
}

// a dangling reference surfaces as the referenced entity's not-found error
func mapEventWriteError(err error) error {
	constraint, ok := violatedConstraint(err)
	if !ok {
		return err
	}

	switch constraint {
	case constraintEventCategory:
		return category.ErrNotFound
	case constraintEventLocation:
		return location.ErrNotFound
	case constraintEventOrganizer:
		return user.ErrNotFound
	}
	return err
}
