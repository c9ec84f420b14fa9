package smes

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"github.com/etalasekita/etalase/internal/forms"
	"github.com/etalasekita/etalase/internal/platform/httpx"
	"github.com/etalasekita/etalase/internal/shared"
)

var apiMessages = httpx.Messages{NotFound: "UMKM tidak ditemukan"}

// API serves the /api/smes resource.
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

// FilterFromQuery reads the category, province and featured parameters.
func FilterFromQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{Category: q.Get("category"), Province: q.Get("province")}
	if raw := q.Get("featured"); raw != "" {
		v, err := cast.ToBoolE(raw)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: featured harus true atau false", shared.ErrValidation)
		}
		f.Featured = &v
	}
	return f, nil
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	f, err := FilterFromQuery(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items, err := a.service.List(r.Context(), f)
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
	s, err := a.service.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	d, err := a.draft(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	created, err := a.service.Create(r.Context(), d)
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
	d, err := a.draft(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	updated, err := a.service.Update(r.Context(), id, d)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "SME updated successfully", updated)
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
	httpx.Message(w, http.StatusOK, "SME deleted successfully", nil)
}

func (a *API) draft(r *http.Request) (Draft, error) {
	sub, err := forms.Parse(r, a.maxBytes)
	if err != nil {
		return Draft{}, err
	}
	return DraftFromSubmission(sub)
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := httpx.Classify(err, apiMessages)
	if status >= http.StatusInternalServerError {
		a.logger.Error("smes api", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.Error(w, status, message)
}
