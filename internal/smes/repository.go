package smes

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/etalasekita/etalase/internal/platform/db"
	"github.com/etalasekita/etalase/internal/shared"
)

const columns = `id, name, short_description, description, story, city, province, address,
	phone, email, website, instagram, facebook, established_date, category, featured,
	product_count, logo, cover_image, latitude, longitude, created_at`

// Filter narrows List by equality. Empty fields are ignored.
type Filter struct {
	Category string
	Province string
	Featured *bool
}

// Repository persists SMEs.
type Repository interface {
	List(ctx context.Context, f Filter) ([]SME, error)
	Get(ctx context.Context, id int64) (SME, error)
	Create(ctx context.Context, d Draft) (SME, error)
	Update(ctx context.Context, id int64, d Draft) (SME, error)
	Delete(ctx context.Context, id int64) error
	RecountProducts(ctx context.Context, ids []int64) (int64, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

func (r *repository) List(ctx context.Context, f Filter) ([]SME, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if f.Category != "" {
		add("category = ?", f.Category)
	}
	if f.Province != "" {
		add("province = ?", f.Province)
	}
	if f.Featured != nil {
		add("featured = ?", *f.Featured)
	}

	query := `SELECT ` + columns + ` FROM smes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Wrap("list smes", err)
	}
	defer rows.Close()

	out := make([]SME, 0)
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, db.Wrap("scan sme", err)
		}
		out = append(out, s)
	}
	return out, db.Wrap("list smes", rows.Err())
}

func (r *repository) Get(ctx context.Context, id int64) (SME, error) {
	s, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM smes WHERE id = $1`, id))
	return s, db.Wrap("get sme", err)
}

func (r *repository) Create(ctx context.Context, d Draft) (SME, error) {
	query, args := assignments(d).Insert("smes", columns)
	s, err := scan(r.db.QueryRow(ctx, query, args...))
	return s, db.Wrap("insert sme", err)
}

func (r *repository) Update(ctx context.Context, id int64, d Draft) (SME, error) {
	set := assignments(d)
	if set.Empty() {
		return r.Get(ctx, id)
	}
	query, args := set.UpdateByID("smes", id, columns)
	s, err := scan(r.db.QueryRow(ctx, query, args...))
	return s, db.Wrap("update sme", err)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM smes WHERE id = $1`, id)
	if err != nil {
		return db.Wrap("delete sme", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RecountProducts refreshes product_count for ids, or for every SME when ids is empty.
// It returns the number of rows whose count changed.
func (r *repository) RecountProducts(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		ids = nil
	}
	tag, err := r.db.Exec(ctx, `
UPDATE smes s
SET product_count = c.n
FROM (
	SELECT s2.id, count(p.id)::int AS n
	FROM smes s2
	LEFT JOIN products p ON p.sme_id = s2.id
	WHERE $1::bigint[] IS NULL OR s2.id = ANY($1)
	GROUP BY s2.id
) c
WHERE s.id = c.id AND s.product_count <> c.n`, ids)
	if err != nil {
		return 0, db.Wrap("recount sme products", err)
	}
	return tag.RowsAffected(), nil
}

func assignments(d Draft) *db.Assignments {
	set := &db.Assignments{}
	text := func(col string, v *string) {
		if v != nil {
			set.Set(col, *v)
		}
	}
	text("name", d.Name)
	text("short_description", d.ShortDescription)
	text("description", d.Description)
	text("story", d.Story)
	text("city", d.City)
	text("province", d.Province)
	text("address", d.Address)
	text("phone", d.Phone)
	text("email", d.Email)
	text("website", d.Website)
	text("instagram", d.Instagram)
	text("facebook", d.Facebook)
	text("category", d.Category)
	if d.Featured != nil {
		set.Set("featured", *d.Featured)
	}
	if d.EstablishedDate.Set {
		set.Set("established_date", d.EstablishedDate.Ptr())
	}
	if d.Latitude.Set {
		set.Set("latitude", d.Latitude.Ptr())
	}
	if d.Longitude.Set {
		set.Set("longitude", d.Longitude.Ptr())
	}
	if d.Logo.Set {
		set.Set("logo", d.Logo.URL)
	}
	if d.CoverImage.Set {
		set.Set("cover_image", d.CoverImage.URL)
	}
	return set
}

func scan(row pgx.Row) (SME, error) {
	var s SME
	err := row.Scan(
		&s.ID, &s.Name, &s.ShortDescription, &s.Description, &s.Story, &s.City, &s.Province,
		&s.Address, &s.Phone, &s.Email, &s.Website, &s.Instagram, &s.Facebook,
		&s.EstablishedDate, &s.Category, &s.Featured, &s.ProductCount, &s.Logo, &s.CoverImage,
		&s.Latitude, &s.Longitude, &s.CreatedAt,
	)
	return s, err
}
