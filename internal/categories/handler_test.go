package categories

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etalasekita/etalase/internal/shared"
	"github.com/etalasekita/etalase/internal/view"
)

type consoleFixture struct {
	router http.Handler
	repo   *memoryRepo
	sess   *shared.Session
}

func newConsole(t *testing.T, seed ...Category) consoleFixture {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	repo := newMemoryRepo(seed...)
	sess := &shared.Session{ID: "console"}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(shared.ContextWithSession(r.Context(), sess)))
		})
	})
	r.Route(basePath, NewHandler(nil, NewService(repo, nil), engine, shared.NewCSRFManager("x"), 1<<20).MountRoutes)
	return consoleFixture{router: r, repo: repo, sess: sess}
}

func (f consoleFixture) get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (f consoleFixture) post(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestConsoleListFiltersByQuery(t *testing.T) {
	f := newConsole(t, Category{ID: 1, Slug: "kuliner", Name: "Kuliner"}, Category{ID: 2, Slug: "kriya", Name: "Kriya"})

	rec := f.get("/admin/categories?q=kri")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<td>Kriya</td>")
	assert.NotContains(t, body, "<td>Kuliner</td>")
	assert.Contains(t, body, "1 dari 2 kategori")
}

func TestConsoleCreateRedirectsWithFlash(t *testing.T) {
	f := newConsole(t)

	rec := f.post("/admin/categories", url.Values{"name": {"Kopi & Teh"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/categories", rec.Header().Get("Location"))

	require.Len(t, f.repo.rows, 1)
	assert.Equal(t, "kopi-teh", f.repo.rows[1].Slug)
	flash := f.sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, shared.FlashSuccess, flash.Kind)
}

func TestConsoleCreateRerendersStoreFailure(t *testing.T) {
	f := newConsole(t, Category{ID: 1, Slug: "kuliner", Name: "Kuliner"})

	rec := f.post("/admin/categories", url.Values{"name": {"Kuliner Baru"}, "slug": {"kuliner"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "duplicate key value violates unique constraint")
	assert.Contains(t, body, `value="Kuliner Baru"`)
	assert.Len(t, f.repo.rows, 1)
}

func TestConsoleEditUnknownRedirects(t *testing.T) {
	f := newConsole(t)

	rec := f.get("/admin/categories/9/edit")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	flash := f.sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Kategori tidak ditemukan", flash.Message)
}

func TestConsoleValidationFailureIs400(t *testing.T) {
	f := newConsole(t)

	rec := f.post("/admin/categories", url.Values{"name": {strings.Repeat("k", 121)}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.repo.rows)
}
