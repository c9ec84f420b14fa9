package products

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/etalasekita/etalase/internal/platform/db"
	"github.com/etalasekita/etalase/internal/shared"
)

const columns = `id, name, description, long_description, price, category_slug, sme_id, image, featured, created_at`

// Filter narrows List by equality. Zero fields are ignored.
type Filter struct {
	SMEID    *int64
	Category string
}

// Repository persists products.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, d Draft) (Product, error)
	Update(ctx context.Context, id int64, d Draft) (Product, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

func (r *repository) List(ctx context.Context, f Filter) ([]Product, error) {
	var (
		where []string
		args  []any
	)
	if f.SMEID != nil {
		args = append(args, *f.SMEID)
		where = append(where, "sme_id = $"+strconv.Itoa(len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, "category_slug = $"+strconv.Itoa(len(args)))
	}
	query := `SELECT ` + columns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Wrap("list products", err)
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, db.Wrap("scan product", err)
		}
		out = append(out, p)
	}
	return out, db.Wrap("list products", rows.Err())
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM products WHERE id = $1`, id))
	return p, db.Wrap("get product", err)
}

func (r *repository) Create(ctx context.Context, d Draft) (Product, error) {
	query, args := assignments(d).Insert("products", columns)
	p, err := scan(r.db.QueryRow(ctx, query, args...))
	return p, db.Wrap("insert product", err)
}

func (r *repository) Update(ctx context.Context, id int64, d Draft) (Product, error) {
	set := assignments(d)
	if set.Empty() {
		return r.Get(ctx, id)
	}
	query, args := set.UpdateByID("products", id, columns)
	p, err := scan(r.db.QueryRow(ctx, query, args...))
	return p, db.Wrap("update product", err)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return db.Wrap("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func assignments(d Draft) *db.Assignments {
	set := &db.Assignments{}
	if d.Name != nil {
		set.Set("name", *d.Name)
	}
	if d.Description != nil {
		set.Set("description", *d.Description)
	}
	if d.LongDescription != nil {
		set.Set("long_description", *d.LongDescription)
	}
	if d.Price != nil {
		set.Set("price", *d.Price)
	}
	if d.CategorySlug.Set {
		set.Set("category_slug", d.CategorySlug.Ptr())
	}
	if d.SMEID.Set {
		set.Set("sme_id", d.SMEID.Ptr())
	}
	if d.Featured != nil {
		set.Set("featured", *d.Featured)
	}
	if d.Image.Set {
		set.Set("image", d.Image.URL)
	}
	return set
}

func scan(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.LongDescription, &p.Price,
		&p.CategorySlug, &p.SMEID, &p.Image, &p.Featured, &p.CreatedAt)
	return p, err
}
