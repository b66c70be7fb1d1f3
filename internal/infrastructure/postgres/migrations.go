package postgres

import (
	"context"
	_ "embed"
	"strings"

	"github.com/pkg/errors"
)

//go:embed migrations/schema.sql
var schemaSQL string

// Migrate creates missing tables and seeds the role rows. It is safe to run
// on every start.
func (db *Database) Migrate(ctx context.Context) error {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire connection")
	}
	defer conn.Release()

	for i, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return errors.Wrapf(err, "schema statement %d", i+1)
		}
	}
	return nil
}
