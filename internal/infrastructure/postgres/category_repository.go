package postgres

import (
	"context"
	"time"

	domain "catalog/backend/internal/domain/category"
	"catalog/backend/internal/domain/page"
	"catalog/backend/internal/domain/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var categoryColumns = []string{"c.id", "c.name", "c.created_at", "c.updated_at"}

var categorySortable = map[string]string{
	"id":   "c.id",
	"name": "c.name",
}

// CategoryRepository persists categories in PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository constructs a repository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

var _ domain.Repository = (*CategoryRepository)(nil)

// FindByID fetches a category by id.
func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	row := queryRow(ctx, r.pool, psql.Select(categoryColumns...).
		From("tb_category c").
		Where(sq.Eq{"c.id": id}))
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrEmptyResult
		}
		return nil, errors.Wrapf(err, "find category %d", id)
	}
	return c, nil
}

// FindAll returns one page of categories ordered by name unless asked otherwise.
func (r *CategoryRepository) FindAll(ctx context.Context, req page.Request) (page.Page[*domain.Category], error) {
	total, err := count(ctx, r.pool, psql.Select("COUNT(*)").From("tb_category c"))
	if err != nil {
		return page.Page[*domain.Category]{}, err
	}

	stmt := paginate(psql.Select(categoryColumns...).From("tb_category c"), req, categorySortable, "c.id")
	rows, err := queryRows(ctx, r.pool, stmt)
	if err != nil {
		return page.Page[*domain.Category]{}, errors.Wrap(err, "list categories")
	}
	defer rows.Close()

	var items []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return page.Page[*domain.Category]{}, errors.Wrap(err, "scan category")
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return page.Page[*domain.Category]{}, errors.Wrap(err, "list categories")
	}
	return page.New(items, req, total), nil
}

// Save inserts c when it has no id and updates it otherwise.
func (r *CategoryRepository) Save(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	if c.ID == 0 {
		row := queryRow(ctx, r.pool, psql.Insert("tb_category").
			SetMap(map[string]any{
				"name":       c.Name,
				"created_at": c.CreatedAt,
				"updated_at": c.UpdatedAt,
			}).
			Suffix("RETURNING id, name, created_at, updated_at"))
		saved, err := scanCategory(row)
		if err != nil {
			return nil, errors.Wrap(err, "insert category")
		}
		return saved, nil
	}

	row := queryRow(ctx, r.pool, psql.Update("tb_category").
		SetMap(map[string]any{
			"name":       c.Name,
			"updated_at": c.UpdatedAt,
		}).
		Where(sq.Eq{"id": c.ID}).
		Suffix("RETURNING id, name, created_at, updated_at"))
	saved, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, errors.Wrapf(err, "update category %d", c.ID)
	}
	return saved, nil
}

// DeleteByID removes a category no product references.
func (r *CategoryRepository) DeleteByID(ctx context.Context, id int64) error {
	ct, err := execStmt(ctx, r.pool, psql.Delete("tb_category").Where(sq.Eq{"id": id}))
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrIntegrityViolation
		}
		return errors.Wrapf(err, "delete category %d", id)
	}
	if ct.RowsAffected() == 0 {
		return storage.ErrEmptyResult
	}
	return nil
}

// GetReference returns a placeholder. It never touches the database, so only
// ids below 1 are rejected here.
func (r *CategoryRepository) GetReference(_ context.Context, id int64) (*domain.Category, error) {
	if id <= 0 {
		return nil, storage.ErrEntityNotFound
	}
	return &domain.Category{ID: id}, nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		c         domain.Category
		updatedAt *time.Time
	)
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	if updatedAt != nil {
		c.UpdatedAt = *updatedAt
	}
	return &c, nil
}
