package categories

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/etalasekita/etalase/internal/forms"
	"github.com/etalasekita/etalase/internal/platform/httpx"
)

var apiMessages = httpx.Messages{NotFound: "Kategori tidak ditemukan"}

// API serves the /api/categories resource.
type API struct {
	service  *Service
	logger   *slog.Logger
	maxBytes int64
}

// NewAPI constructs the REST handler.
func NewAPI(service *Service, logger *slog.Logger, maxBytes int64) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{service: service, logger: logger, maxBytes: maxBytes}
}

// MountRoutes registers the resource; writes go through requireToken.
func (a *API) MountRoutes(r chi.Router, requireToken func(http.Handler) http.Handler) {
	r.Get("/", a.list)
	r.Get("/{id}", a.get)
	r.Group(func(r chi.Router) {
		r.Use(requireToken)
		r.Post("/", a.create)
		r.Put("/{id}", a.update)
		r.Patch("/{id}", a.update)
		r.Delete("/{id}", a.delete)
	})
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	items, err := a.service.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (a *API) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.service.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	sub, err := forms.Parse(r, a.maxBytes)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	created, err := a.service.Create(r.Context(), DraftFromSubmission(sub))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (a *API) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sub, err := forms.Parse(r, a.maxBytes)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	updated, err := a.service.Update(r.Context(), id, DraftFromSubmission(sub))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Category updated successfully", updated)
}

func (a *API) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.service.Delete(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Category deleted successfully", nil)
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := httpx.Classify(err, apiMessages)
	if status >= http.StatusInternalServerError {
		a.logger.Error("categories api", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.Error(w, status, message)
}
