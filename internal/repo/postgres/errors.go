package postgres

import (
	"errors"

	"github.com/geocoder89/todohub/internal/observability"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// constraintName is the violated constraint, or "" for other errors.
func constraintName(err error) string {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

type scanner interface {
	Scan(dest ...any) error
}

// metered times each logical operation when metrics are configured.
type metered struct {
	prom *observability.Prom
}

func (m metered) observe(op string, fn func() error) error {
	if m.prom != nil {
		return m.prom.ObserveDB(op, fn)
	}
	return fn()
}
