package postgres

import (
	"context"

	"catalog/backend/internal/domain/page"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func execStmt(ctx context.Context, q querier, stmt sq.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := stmt.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, errors.Wrap(err, "build statement")
	}
	return q.Exec(ctx, sql, args...)
}

func queryRows(ctx context.Context, q querier, stmt sq.Sqlizer) (pgx.Rows, error) {
	sql, args, err := stmt.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	return q.Query(ctx, sql, args...)
}

// rowError defers a build failure to Scan so callers keep a single error path.
type rowError struct{ err error }

func (r rowError) Scan(...any) error { return r.err }

func queryRow(ctx context.Context, q querier, stmt sq.Sqlizer) pgx.Row {
	sql, args, err := stmt.ToSql()
	if err != nil {
		return rowError{errors.Wrap(err, "build query")}
	}
	return q.QueryRow(ctx, sql, args...)
}

func count(ctx context.Context, q querier, stmt sq.SelectBuilder) (int64, error) {
	var total int64
	if err := queryRow(ctx, q, stmt).Scan(&total); err != nil {
		return 0, errors.Wrap(err, "count rows")
	}
	return total, nil
}

// paginate applies ordering, limit and offset. Only columns present in
// sortable may be used; anything else falls back to fallback ascending.
func paginate(stmt sq.SelectBuilder, req page.Request, sortable map[string]string, fallback string) sq.SelectBuilder {
	req = req.Normalize()
	order := []string{fallback}
	field, desc := req.SortField()
	if column, ok := sortable[field]; ok {
		if desc {
			column += " DESC"
		}
		if column == fallback {
			order = []string{column}
		} else {
			order = []string{column, fallback}
		}
	}
	return stmt.
		OrderBy(order...).
		Limit(uint64(req.Size)).
		Offset(uint64(req.Offset()))
}
