package categories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/etalasekita/etalase/internal/platform/db"
	"github.com/etalasekita/etalase/internal/shared"
)

const columns = `id, slug, name, created_at`

// Repository persists categories.
type Repository interface {
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id int64) (Category, error)
	Create(ctx context.Context, d Draft) (Category, error)
	Update(ctx context.Context, id int64, d Draft) (Category, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

func (r *repository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM categories ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, db.Wrap("list categories", err)
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, db.Wrap("scan category", err)
		}
		out = append(out, c)
	}
	return out, db.Wrap("list categories", rows.Err())
}

func (r *repository) Get(ctx context.Context, id int64) (Category, error) {
	c, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM categories WHERE id = $1`, id))
	return c, db.Wrap("get category", err)
}

func (r *repository) Create(ctx context.Context, d Draft) (Category, error) {
	query, args := assignments(d).Insert("categories", columns)
	c, err := scan(r.db.QueryRow(ctx, query, args...))
	return c, db.Wrap("insert category", err)
}

func (r *repository) Update(ctx context.Context, id int64, d Draft) (Category, error) {
	set := assignments(d)
	if set.Empty() {
		return r.Get(ctx, id)
	}
	query, args := set.UpdateByID("categories", id, columns)
	c, err := scan(r.db.QueryRow(ctx, query, args...))
	return c, db.Wrap("update category", err)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return db.Wrap("delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func assignments(d Draft) *db.Assignments {
	set := &db.Assignments{}
	if d.Slug != nil {
		set.Set("slug", *d.Slug)
	}
	if d.Name != nil {
		set.Set("name", *d.Name)
	}
	return set
}

func scan(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Slug, &c.Name, &c.CreatedAt)
	return c, err
}
