package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, letting the import
// processor bind every resolver and handler used for a row to the row's
// transaction.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation. The placeholder-email resolver uses this to retry with an
// incremented suffix instead of trusting a prior SELECT.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
