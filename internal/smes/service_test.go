package smes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etalasekita/etalase/internal/forms"
	"github.com/etalasekita/etalase/internal/listing"
	"github.com/etalasekita/etalase/internal/platform/db"
	"github.com/etalasekita/etalase/internal/shared"
)

type memoryRepo struct {
	rows      map[int64]SME
	nextID    int64
	failWrite error
}

func newMemoryRepo(seed ...SME) *memoryRepo {
	repo := &memoryRepo{rows: make(map[int64]SME), nextID: 1}
	for _, s := range seed {
		repo.rows[s.ID] = s
		if s.ID >= repo.nextID {
			repo.nextID = s.ID + 1
		}
	}
	return repo
}

func (m *memoryRepo) List(ctx context.Context, f Filter) ([]SME, error) {
	out := make([]SME, 0, len(m.rows))
	for id := int64(1); id < m.nextID; id++ {
		s, ok := m.rows[id]
		if !ok {
			continue
		}
		if f.Province != "" && s.Province != f.Province {
			continue
		}
		if f.Category != "" && s.Category != f.Category {
			continue
		}
		if f.Featured != nil && s.Featured != *f.Featured {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (SME, error) {
	s, ok := m.rows[id]
	if !ok {
		return SME{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *memoryRepo) Create(ctx context.Context, d Draft) (SME, error) {
	if m.failWrite != nil {
		return SME{}, m.failWrite
	}
	s := SME{ID: m.nextID, CreatedAt: time.Now()}
	m.nextID++
	apply(&s, d)
	m.rows[s.ID] = s
	return s, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, d Draft) (SME, error) {
	if m.failWrite != nil {
		return SME{}, m.failWrite
	}
	s, ok := m.rows[id]
	if !ok {
		return SME{}, shared.ErrNotFound
	}
	apply(&s, d)
	m.rows[id] = s
	return s, nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memoryRepo) RecountProducts(ctx context.Context, ids []int64) (int64, error) {
	return 0, nil
}

func apply(s *SME, d Draft) {
	if d.Name != nil {
		s.Name = *d.Name
	}
	if d.City != nil {
		s.City = *d.City
	}
	if d.Province != nil {
		s.Province = *d.Province
	}
	if d.Featured != nil {
		s.Featured = *d.Featured
	}
	if d.EstablishedDate.Set {
		s.EstablishedDate = d.EstablishedDate.Ptr()
	}
	if d.Latitude.Set {
		s.Latitude = d.Latitude.Ptr()
	}
	if d.Longitude.Set {
		s.Longitude = d.Longitude.Ptr()
	}
	if d.Logo.Set {
		s.Logo = d.Logo.URL
	}
	if d.CoverImage.Set {
		s.CoverImage = d.CoverImage.URL
	}
}

type fakeUploads struct {
	put       []string
	discarded []string
	err       error
}

func (f *fakeUploads) Put(ctx context.Context, namespace string, fh *multipart.FileHeader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	url := "https://store.test/storage/v1/object/public/umkm-assets/" + namespace + "/" + fh.Filename
	f.put = append(f.put, url)
	return url, nil
}

func (f *fakeUploads) Discard(ctx context.Context, urls ...string) {
	for _, u := range urls {
		if u != "" {
			f.discarded = append(f.discarded, u)
		}
	}
}

func fileHeader(t *testing.T, field, filename string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\npayload"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File[field][0]
}

func ptr[T any](v T) *T { return &v }

func passthrough(next http.Handler) http.Handler { return next }

func newTestRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/smes", func(r chi.Router) {
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

func TestCoordinatesMustComeInPairs(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)

	_, err := svc.Create(context.Background(), Draft{Name: ptr("Batik"), Latitude: forms.Value(-7.8)})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), Draft{Name: ptr("Batik"), Latitude: forms.Value(95.0), Longitude: forms.Value(110.0)})
	require.ErrorIs(t, err, shared.ErrValidation)

	created, err := svc.Create(context.Background(), Draft{Name: ptr("Batik"), Latitude: forms.Value(-7.8), Longitude: forms.Value(110.36)})
	require.NoError(t, err)
	assert.True(t, created.HasLocation())
}

func TestSetLocationClearsBothCoordinates(t *testing.T) {
	repo := newMemoryRepo(SME{ID: 1, Name: "Kopi", Latitude: ptr(-6.9), Longitude: ptr(110.4)})
	svc := NewService(repo, nil, nil)

	updated, err := svc.SetLocation(context.Background(), 1, forms.Null[float64]{}, forms.Null[float64]{})
	require.NoError(t, err)
	assert.Nil(t, updated.Latitude)
	assert.Nil(t, updated.Longitude)
	assert.False(t, updated.HasLocation())

	_, err = svc.SetLocation(context.Background(), 9, forms.Value(1.0), forms.Value(2.0))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFailedWritePurgesFreshUpload(t *testing.T) {
	repo := newMemoryRepo()
	repo.failWrite = &db.StoreError{Op: "insert sme", Err: errors.New("null value in column \"name\"")}
	uploads := &fakeUploads{}
	svc := NewService(repo, uploads, nil)

	_, err := svc.Create(context.Background(), Draft{Logo: forms.FileField{Upload: fileHeader(t, "logo", "logo.png")}})
	require.Error(t, err)
	require.Len(t, uploads.put, 1)
	assert.Equal(t, uploads.put, uploads.discarded)
}

func TestReplacingImagePurgesPrevious(t *testing.T) {
	repo := newMemoryRepo(SME{ID: 1, Name: "Batik", Logo: "old-logo", CoverImage: "old-cover"})
	uploads := &fakeUploads{}
	svc := NewService(repo, uploads, nil)

	updated, err := svc.Update(context.Background(), 1, Draft{Logo: forms.FileField{Upload: fileHeader(t, "logo", "new.png")}})
	require.NoError(t, err)
	assert.Equal(t, uploads.put[0], updated.Logo)
	assert.Equal(t, "old-cover", updated.CoverImage)
	assert.Equal(t, []string{"old-logo"}, uploads.discarded)
}

func TestDeletePurgesImages(t *testing.T) {
	repo := newMemoryRepo(SME{ID: 1, Name: "Batik", Logo: "logo-url", CoverImage: "cover-url"})
	uploads := &fakeUploads{}
	svc := NewService(repo, uploads, nil)

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.ElementsMatch(t, []string{"logo-url", "cover-url"}, uploads.discarded)
	assert.ErrorIs(t, svc.Delete(context.Background(), 1), shared.ErrNotFound)
}

func TestAPIUpdateKeepsID(t *testing.T) {
	repo := newMemoryRepo(SME{ID: 4, Name: "Kopi Lestari", City: "Semarang"})
	router := newTestRouter(NewService(repo, nil, nil))

	rec := do(t, router, http.MethodPatch, "/api/smes/4", `{"id": 7, "city": "Salatiga"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Message string `json:"message"`
		Data    SME    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SME updated successfully", body.Message)
	assert.Equal(t, int64(4), body.Data.ID)
	assert.Equal(t, "Salatiga", body.Data.City)
	assert.Equal(t, "Kopi Lestari", body.Data.Name)
	assert.NotContains(t, repo.rows, int64(7))
}

func TestAPIDeleteThenNotFound(t *testing.T) {
	router := newTestRouter(NewService(newMemoryRepo(SME{ID: 1, Name: "Batik Asri"}), nil, nil))

	rec := do(t, router, http.MethodDelete, "/api/smes/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"SME deleted successfully"}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/smes/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"UMKM tidak ditemukan"}`, rec.Body.String())
}

func TestAPIListFilters(t *testing.T) {
	router := newTestRouter(NewService(newMemoryRepo(
		SME{ID: 1, Name: "Batik Asri", Province: "DI Yogyakarta", Featured: true},
		SME{ID: 2, Name: "Kopi Lestari", Province: "Jawa Tengah"},
	), nil, nil))

	rec := do(t, router, http.MethodGet, "/api/smes?featured=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []SME
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].ID)

	rec = do(t, router, http.MethodGet, "/api/smes?featured=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIRejectsHalfCoordinate(t *testing.T) {
	router := newTestRouter(NewService(newMemoryRepo(), nil, nil))

	rec := do(t, router, http.MethodPost, "/api/smes", `{"name":"Batik","latitude":-7.8}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"latitude dan longitude harus diisi bersamaan"}`, rec.Body.String())
}

func TestPublicQueryExample(t *testing.T) {
	v := listing.NewView(PublicListSpec, []SME{
		{ID: 1, Name: "Batik Asri", City: "Yogyakarta"},
		{ID: 2, Name: "Kopi Lestari", City: "Semarang"},
	})
	v.SetQuery("yo")

	items := v.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ID)
}

func TestPublicSortByEstablishedDate(t *testing.T) {
	older := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	v := listing.NewView(PublicListSpec, []SME{
		{ID: 1, Name: "A", EstablishedDate: &older, CreatedAt: newer},
		{ID: 2, Name: "B", EstablishedDate: &newer, CreatedAt: older},
	})
	v.SetSort(listing.SortNewest)

	items := v.Items()
	assert.Equal(t, int64(2), items[0].ID)
}

func TestLabel(t *testing.T) {
	all := []SME{{ID: 1, Name: "Batik Asri"}}
	assert.Equal(t, "Batik Asri", Label(all, ptr(int64(1))))
	assert.Equal(t, "UMKM tidak diketahui", Label(all, ptr(int64(5))))
	assert.Equal(t, "-", Label(all, nil))
}
