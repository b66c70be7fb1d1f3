package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories react to.
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isForeignKeyViolation(err error) bool {
	return sqlState(err) == foreignKeyViolation
}

func isUniqueViolation(err error) bool {
	return sqlState(err) == uniqueViolation
}
