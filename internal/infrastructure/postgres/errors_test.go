package postgres

import (
	"context"
	"testing"

	"catalog/backend/internal/domain/storage"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestViolationClassification(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "tb_product_category_category_id_fkey"}
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "tb_user_email_key"}

	assert.True(t, isForeignKeyViolation(fk))
	assert.True(t, isForeignKeyViolation(errors.Wrap(fk, "delete category")))
	assert.False(t, isForeignKeyViolation(unique))

	assert.True(t, isUniqueViolation(errors.Wrap(unique, "insert user")))
	assert.False(t, isUniqueViolation(fk))

	assert.Empty(t, sqlState(errors.New("connection reset")))
	assert.False(t, isUniqueViolation(nil))
}

func TestGetReferenceRejectsUnassignedIDs(t *testing.T) {
	products := NewProductRepository(nil)
	categories := NewCategoryRepository(nil)

	for _, id := range []int64{0, -1} {
		_, err := products.GetReference(context.Background(), id)
		assert.ErrorIs(t, err, storage.ErrEntityNotFound)
		_, err = categories.GetReference(context.Background(), id)
		assert.ErrorIs(t, err, storage.ErrEntityNotFound)
	}

	p, err := products.GetReference(context.Background(), 7)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
}
