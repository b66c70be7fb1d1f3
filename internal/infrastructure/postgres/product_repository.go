package postgres

import (
	"context"
	"strings"

	categorydomain "catalog/backend/internal/domain/category"
	"catalog/backend/internal/domain/page"
	domain "catalog/backend/internal/domain/product"
	"catalog/backend/internal/domain/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var productColumns = []string{"p.id", "p.name", "p.description", "p.price", "p.img_url", "p.date"}

var productSortable = map[string]string{
	"id":    "p.id",
	"name":  "p.name",
	"price": "p.price",
	"date":  "p.date",
}

// ProductRepository persists products and their category links in PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository constructs a repository.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

var _ domain.Repository = (*ProductRepository)(nil)

// FindByID fetches a product with its categories.
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := findProduct(ctx, r.pool, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrEmptyResult
		}
		return nil, errors.Wrapf(err, "find product %d", id)
	}
	return p, nil
}

// FindAll returns one page of products matching filter.
func (r *ProductRepository) FindAll(ctx context.Context, req page.Request, filter domain.Filter) (page.Page[*domain.Product], error) {
	where := sq.And{}
	if name := strings.TrimSpace(filter.Name); name != "" {
		where = append(where, sq.ILike{"p.name": "%" + name + "%"})
	}
	if filter.CategoryID > 0 {
		where = append(where, sq.Expr(
			"EXISTS (SELECT 1 FROM tb_product_category pc WHERE pc.product_id = p.id AND pc.category_id = ?)",
			filter.CategoryID,
		))
	}

	total, err := count(ctx, r.pool, psql.Select("COUNT(*)").From("tb_product p").Where(where))
	if err != nil {
		return page.Page[*domain.Product]{}, err
	}

	stmt := paginate(psql.Select(productColumns...).From("tb_product p").Where(where), req, productSortable, "p.id")
	rows, err := queryRows(ctx, r.pool, stmt)
	if err != nil {
		return page.Page[*domain.Product]{}, errors.Wrap(err, "list products")
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return page.Page[*domain.Product]{}, errors.Wrap(err, "list products")
	}

	if err := attachCategories(ctx, r.pool, products); err != nil {
		return page.Page[*domain.Product]{}, err
	}
	return page.New(products, req, total), nil
}

// Save writes the product row and replaces its category links in one
// transaction. A product with an id that matches no row yields
// storage.ErrEntityNotFound. Unknown category ids are rejected by the
// database and reported as is.
func (r *ProductRepository) Save(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	var saved *domain.Product
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		id, err := writeProduct(ctx, tx, p)
		if err != nil {
			return err
		}
		if err := linkCategories(ctx, tx, id, p.CategoryIDs()); err != nil {
			return err
		}
		saved, err = findProduct(ctx, tx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "save product")
	}
	return saved, nil
}

// DeleteByID removes a product. Its category links go with it.
func (r *ProductRepository) DeleteByID(ctx context.Context, id int64) error {
	ct, err := execStmt(ctx, r.pool, psql.Delete("tb_product").Where(sq.Eq{"id": id}))
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrIntegrityViolation
		}
		return errors.Wrapf(err, "delete product %d", id)
	}
	if ct.RowsAffected() == 0 {
		return storage.ErrEmptyResult
	}
	return nil
}

// GetReference returns a placeholder. Whether the id exists is only known once
// the placeholder is saved. Ids below 1 are rejected at once.
func (r *ProductRepository) GetReference(_ context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, storage.ErrEntityNotFound
	}
	return &domain.Product{ID: id}, nil
}

func writeProduct(ctx context.Context, q querier, p *domain.Product) (int64, error) {
	values := map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"img_url":     p.ImgURL,
		"date":        p.Date,
	}

	var id int64
	if p.IsNew() {
		err := queryRow(ctx, q, psql.Insert("tb_product").SetMap(values).Suffix("RETURNING id")).Scan(&id)
		return id, errors.Wrap(err, "insert product")
	}

	err := queryRow(ctx, q, psql.Update("tb_product").
		SetMap(values).
		Where(sq.Eq{"id": p.ID}).
		Suffix("RETURNING id")).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, storage.ErrEntityNotFound
	}
	return id, errors.Wrapf(err, "update product %d", p.ID)
}

func linkCategories(ctx context.Context, q querier, productID int64, categoryIDs []int64) error {
	if _, err := execStmt(ctx, q, psql.Delete("tb_product_category").Where(sq.Eq{"product_id": productID})); err != nil {
		return errors.Wrap(err, "clear product categories")
	}
	if len(categoryIDs) == 0 {
		return nil
	}

	insert := psql.Insert("tb_product_category").
		Columns("product_id", "category_id").
		Suffix("ON CONFLICT DO NOTHING")
	for _, categoryID := range categoryIDs {
		insert = insert.Values(productID, categoryID)
	}
	_, err := execStmt(ctx, q, insert)
	return errors.Wrap(err, "link product categories")
}

func findProduct(ctx context.Context, q querier, id int64) (*domain.Product, error) {
	p, err := scanProduct(queryRow(ctx, q, psql.Select(productColumns...).
		From("tb_product p").
		Where(sq.Eq{"p.id": id})))
	if err != nil {
		return nil, err
	}
	if err := attachCategories(ctx, q, []*domain.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// attachCategories loads the categories of every product with one query.
func attachCategories(ctx context.Context, q querier, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Product, len(products))
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		p.Categories = []*categorydomain.Category{}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := queryRows(ctx, q, psql.Select(append([]string{"pc.product_id"}, categoryColumns...)...).
		From("tb_category c").
		Join("tb_product_category pc ON pc.category_id = c.id").
		Where(sq.Eq{"pc.product_id": ids}).
		OrderBy("c.name", "c.id"))
	if err != nil {
		return errors.Wrap(err, "load product categories")
	}
	defer rows.Close()

	for rows.Next() {
		var productID int64
		c, err := scanCategory(prefixedRow{row: rows, first: &productID})
		if err != nil {
			return errors.Wrap(err, "scan product category")
		}
		if p, ok := byID[productID]; ok {
			p.Categories = append(p.Categories, c)
		}
	}
	return errors.Wrap(rows.Err(), "load product categories")
}

// prefixedRow scans a leading column into first and hands the rest on.
type prefixedRow struct {
	row   pgx.Row
	first any
}

func (r prefixedRow) Scan(dest ...any) error {
	return r.row.Scan(append([]any{r.first}, dest...)...)
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.ImgURL,
		&p.Date,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
