package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etalasekita/etalase/internal/shared"
)

func TestAssignmentsUpdateByID(t *testing.T) {
	var a Assignments
	a.Set("name", "Kopi")
	a.Set("price", int64(15000))

	query, args := a.UpdateByID("products", 7, "id, name")

	assert.Equal(t, "UPDATE products SET name = $1, price = $2 WHERE id = $3 RETURNING id, name", query)
	assert.Equal(t, []any{"Kopi", int64(15000), int64(7)}, args)
}

func TestAssignmentsInsert(t *testing.T) {
	var a Assignments
	assert.True(t, a.Empty())
	query, args := a.Insert("categories", "id")
	assert.Equal(t, "INSERT INTO categories DEFAULT VALUES RETURNING id", query)
	assert.Empty(t, args)

	a.Set("slug", "kuliner")
	a.Set("name", "Kuliner")
	query, args = a.Insert("categories", "id")
	assert.Equal(t, "INSERT INTO categories (slug, name) VALUES ($1, $2) RETURNING id", query)
	assert.Equal(t, []any{"kuliner", "Kuliner"}, args)
	assert.Equal(t, []string{"slug", "name"}, a.Columns())
}

func TestWrapClassifiesErrors(t *testing.T) {
	require.NoError(t, Wrap("noop", nil))
	assert.ErrorIs(t, Wrap("get", pgx.ErrNoRows), shared.ErrNotFound)

	pgErr := &pgconn.PgError{Code: CodeForeignKeyViolation, Message: `insert or update on table "products" violates foreign key constraint "products_category_slug_fkey"`}
	err := Wrap("insert product", pgErr)
	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, pgErr.Message, storeErr.Message())
	assert.True(t, HasCode(err, CodeForeignKeyViolation))
	assert.False(t, HasCode(err, CodeUniqueViolation))

	// Already classified errors pass through untouched.
	assert.Same(t, err, Wrap("outer", err))
}
