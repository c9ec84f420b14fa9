package products

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etalasekita/etalase/internal/forms"
	"github.com/etalasekita/etalase/internal/listing"
	"github.com/etalasekita/etalase/internal/platform/db"
	"github.com/etalasekita/etalase/internal/shared"
)

// memoryRepo mimics the products table including its category foreign key.
type memoryRepo struct {
	rows       map[int64]Product
	nextID     int64
	categories map[string]bool
}

func newMemoryRepo(categories []string, seed ...Product) *memoryRepo {
	repo := &memoryRepo{rows: make(map[int64]Product), nextID: 1, categories: make(map[string]bool)}
	for _, c := range categories {
		repo.categories[c] = true
	}
	for _, p := range seed {
		repo.rows[p.ID] = p
		if p.ID >= repo.nextID {
			repo.nextID = p.ID + 1
		}
	}
	return repo
}

func (m *memoryRepo) List(ctx context.Context, f Filter) ([]Product, error) {
	out := make([]Product, 0, len(m.rows))
	for id := m.nextID - 1; id > 0; id-- {
		p, ok := m.rows[id]
		if !ok {
			continue
		}
		if f.SMEID != nil && (p.SMEID == nil || *p.SMEID != *f.SMEID) {
			continue
		}
		if f.Category != "" && (p.CategorySlug == nil || *p.CategorySlug != f.Category) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := m.rows[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) Create(ctx context.Context, d Draft) (Product, error) {
	if err := m.checkCategory(d); err != nil {
		return Product{}, db.Wrap("insert product", err)
	}
	p := Product{ID: m.nextID, CreatedAt: time.Now()}
	m.nextID++
	apply(&p, d)
	m.rows[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, d Draft) (Product, error) {
	p, ok := m.rows[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	if err := m.checkCategory(d); err != nil {
		return Product{}, db.Wrap("update product", err)
	}
	apply(&p, d)
	m.rows[id] = p
	return p, nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memoryRepo) checkCategory(d Draft) error {
	if !d.CategorySlug.Valid || m.categories[d.CategorySlug.V] {
		return nil
	}
	return &pgconn.PgError{
		Code:    db.CodeForeignKeyViolation,
		Message: `insert or update on table "products" violates foreign key constraint "products_category_slug_fkey"`,
	}
}

func apply(p *Product, d Draft) {
	if d.Name != nil {
		p.Name = *d.Name
	}
	if d.Description != nil {
		p.Description = *d.Description
	}
	if d.Price != nil {
		p.Price = *d.Price
	}
	if d.CategorySlug.Set {
		p.CategorySlug = d.CategorySlug.Ptr()
	}
	if d.SMEID.Set {
		p.SMEID = d.SMEID.Ptr()
	}
	if d.Featured != nil {
		p.Featured = *d.Featured
	}
	if d.Image.Set {
		p.Image = d.Image.URL
	}
}

type fakeRecounter struct {
	calls [][]int64
}

func (f *fakeRecounter) EnqueueRecount(ctx context.Context, ids ...int64) error {
	f.calls = append(f.calls, ids)
	return nil
}

type fakeUploads struct {
	discarded []string
}

func (f *fakeUploads) Put(ctx context.Context, namespace string, fh *multipart.FileHeader) (string, error) {
	return "https://store.test/" + namespace + "/" + fh.Filename, nil
}

func (f *fakeUploads) Discard(ctx context.Context, urls ...string) {
	f.discarded = append(f.discarded, urls...)
}

func ptr[T any](v T) *T { return &v }

func passthrough(next http.Handler) http.Handler { return next }

func newTestRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/products", func(r chi.Router) {
		NewAPI(svc, nil, 0).MountRoutes(r, passthrough)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUnknownCategoryIsStoreFailure(t *testing.T) {
	router := newTestRouter(NewService(newMemoryRepo([]string{"kuliner"}), nil, nil, nil))

	rec := do(t, router, http.MethodPost, "/api/products", `{"name":"Keripik","price":15000,"category_slug":"tidak-ada"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"insert or update on table \"products\" violates foreign key constraint \"products_category_slug_fkey\""}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/products", `{"name":"Keripik","price":15000,"category_slug":"kuliner"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "kuliner", *created.CategorySlug)
	assert.Equal(t, int64(15000), created.Price)
}

func TestDeleteThenGetIsNotFound(t *testing.T) {
	repo := newMemoryRepo(nil, Product{ID: 1, Name: "Keripik"}, Product{ID: 2, Name: "Batik"})
	router := newTestRouter(NewService(repo, nil, nil, nil))

	rec := do(t, router, http.MethodDelete, "/api/products/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Product deleted successfully"}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/products/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Produk tidak ditemukan"}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/products", "")
	var list []Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].ID)
}

func TestUpdateNeverChangesID(t *testing.T) {
	repo := newMemoryRepo(nil, Product{ID: 5, Name: "Keripik", Price: 10000})
	router := newTestRouter(NewService(repo, nil, nil, nil))

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		rec := do(t, router, method, "/api/products/5", `{"id":1,"price":12000}`)
		require.Equal(t, http.StatusOK, rec.Code, method)

		var body struct {
			Message string  `json:"message"`
			Data    Product `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Product updated successfully", body.Message)
		assert.Equal(t, int64(5), body.Data.ID)
		assert.Equal(t, "Keripik", body.Data.Name)
		assert.Equal(t, int64(12000), body.Data.Price)
	}
	assert.Len(t, repo.rows, 1)
}

func TestListFilters(t *testing.T) {
	repo := newMemoryRepo([]string{"kuliner", "kriya"},
		Product{ID: 1, Name: "Keripik", CategorySlug: ptr("kuliner"), SMEID: ptr(int64(1))},
		Product{ID: 2, Name: "Tas Anyam", CategorySlug: ptr("kriya"), SMEID: ptr(int64(2))},
		Product{ID: 3, Name: "Sambal", CategorySlug: ptr("kuliner"), SMEID: ptr(int64(2))},
	)
	router := newTestRouter(NewService(repo, nil, nil, nil))

	rec := do(t, router, http.MethodGet, "/api/products?smeId=2&category=kuliner", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, int64(3), list[0].ID)

	rec = do(t, router, http.MethodGet, "/api/products?smeId=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOwnerChangesEnqueueRecount(t *testing.T) {
	repo := newMemoryRepo(nil)
	recounter := &fakeRecounter{}
	svc := NewService(repo, nil, recounter, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, Draft{Name: ptr("Keripik"), SMEID: forms.Value(int64(1))})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, Draft{Name: ptr("Keripik Pedas")})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, Draft{SMEID: forms.Value(int64(2))})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	assert.Equal(t, [][]int64{{1}, {1, 2}, {2}}, recounter.calls)
}

func TestNegativePriceRejected(t *testing.T) {
	svc := NewService(newMemoryRepo(nil), nil, nil, nil)
	_, err := svc.Create(context.Background(), Draft{Name: ptr("Keripik"), Price: ptr(int64(-1))})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestReplacedImageIsDiscarded(t *testing.T) {
	repo := newMemoryRepo(nil, Product{ID: 1, Name: "Keripik", Image: "https://store.test/products/old.png"})
	uploads := &fakeUploads{}
	svc := NewService(repo, uploads, nil, nil)

	updated, err := svc.Update(context.Background(), 1, Draft{Image: forms.FileField{URL: "https://cdn.example/new.png", Set: true}})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/new.png", updated.Image)
	assert.Equal(t, []string{"https://store.test/products/old.png"}, uploads.discarded)
}

func TestFilterIsExactSubset(t *testing.T) {
	items := make([]Product, 0, 20)
	for i := 1; i <= 20; i++ {
		name := fmt.Sprintf("Produk %d", i)
		if i%3 == 0 {
			name = fmt.Sprintf("Keripik SINGKONG %d", i)
		}
		items = append(items, Product{ID: int64(i), Name: name, Description: "olahan lokal"})
	}
	items[4].Description = "Dibuat dari singkong pilihan"

	v := listing.NewView(ListSpec, items)
	v.SetQuery("Singkong")
	got := v.Items()

	want := map[int64]bool{5: true}
	for i := 3; i <= 20; i += 3 {
		want[int64(i)] = true
	}
	require.Len(t, got, len(want))
	for _, p := range got {
		assert.True(t, want[p.ID], "unexpected id %d", p.ID)
	}

	v.SetQuery("   ")
	assert.Empty(t, v.Items())

	v.SetQuery("")
	assert.Len(t, v.Items(), 20)
}
