package observability

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Statuses on the db_query_duration histogram.
const (
	dbStatusOK       = "ok"
	dbStatusNotFound = "not_found"
	dbStatusError    = "error"
)

var pgErrClasses = map[string]string{
	"23505": "unique_violation",
	"23503": "foreign_key_violation",
	"40001": "serialization_failure",
	"40P01": "deadlock",
	"57014": "query_canceled",
}

var sqliteErrClasses = map[int]string{
	sqlite3.SQLITE_CONSTRAINT_UNIQUE:     "unique_violation",
	sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY: "unique_violation",
	sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY: "foreign_key_violation",
	sqlite3.SQLITE_BUSY:                  "busy",
	sqlite3.SQLITE_LOCKED:                "busy",
}

// ObserveDB times one repository operation. A missing row is how lookups
// of unknown or inaccessible lists end, so it is timed as not_found and
// kept out of db_errors_total.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := dbStatusOK
	switch {
	case err == nil:
	case isNoRows(err):
		status = dbStatusNotFound
	default:
		status = dbStatusError
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}

	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if class, ok := pgErrClasses[pgErr.Code]; ok {
			return class
		}
		return "pg_" + pgErr.Code
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if class, ok := sqliteErrClasses[liteErr.Code()]; ok {
			return class
		}
		return "sqlite_" + strconv.Itoa(liteErr.Code())
	}

	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	default:
		return "unknown"
	}
}
