package postgres

import (
	"errors"

	"github.com/KerenDoz/Event-Planner/internal/observability"
	"github.com/jackc/pgx/v5/pgconn"
)

// constraint names from internal/db/schema.sql
const (
	constraintUsersUsername  = "users_username_uniq"
	constraintUsersEmail     = "users_email_uniq"
	constraintCategoryName   = "categories_name_uniq"
	constraintEventCategory  = "events_category_fk"
	constraintEventLocation  = "events_location_fk"
	constraintEventOrganizer = "events_organizer_fk"
)

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

// violatedConstraint returns the constraint behind a unique (23505) or
// foreign key (23503) violation.
func violatedConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}

	switch pgErr.Code {
	case "23505", "23503":
		return pgErr.ConstraintName, true
	}
	return "", false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// observer times every logical operation when metrics are enabled.
type observer struct {
	prom *observability.Prom
}

func (o observer) observe(op string, fn func() error) error {
	if o.prom != nil {
		return o.prom.ObserveDB(op, fn)
	}
	return fn()
}
