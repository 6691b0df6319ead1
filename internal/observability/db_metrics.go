package observability

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ObserveDB times one repository operation. Failures are counted by reason;
// constraint violations carry the constraint name so a spike of
// events_category_fk is told apart from users_email_uniq.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	if p == nil {
		return fn()
	}

	start := time.Now()
	err := fn()

	status := "ok"
	if err != nil {
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}

	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError

	switch {
	case errors.As(err, &pgErr):
		switch pgErr.Code {
		case "23505":
			return withConstraint("unique", pgErr.ConstraintName)
		case "23503":
			return withConstraint("foreign_key", pgErr.ConstraintName)
		case "23514":
			return withConstraint("check", pgErr.ConstraintName)
		case "57014":
			return "query_canceled"
		}
		return "pg_" + pgErr.Code
	case errors.Is(err, pgx.ErrNoRows):
		return "no_rows"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case pgconn.SafeToRetry(err), pgconn.Timeout(err):
		return "connection"
	}
	return "unknown"
}

func withConstraint(kind, constraint string) string {
	if constraint == "" {
		return kind
	}
	return kind + ":" + constraint
}
