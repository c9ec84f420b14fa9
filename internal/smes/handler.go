package smes

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/etalasekita/etalase/internal/categories"
	"github.com/etalasekita/etalase/internal/forms"
	"github.com/etalasekita/etalase/internal/listing"
	"github.com/etalasekita/etalase/internal/platform/httpx"
	"github.com/etalasekita/etalase/internal/shared"
	"github.com/etalasekita/etalase/internal/view"
)

const basePath = "/admin/smes"

// AdminListSpec searches the console table; dates order by creation.
var AdminListSpec = listing.Spec[SME]{
	Fields: func(s SME) []string { return []string{s.Name, s.ShortDescription, s.City, s.Province} },
	Name:   func(s SME) string { return s.Name },
	Date:   func(s SME) time.Time { return s.CreatedAt },
}

// PublicListSpec is used by the public directory; dates order by founding.
var PublicListSpec = listing.Spec[SME]{
	Fields: AdminListSpec.Fields,
	Name:   AdminListSpec.Name,
	Date:   SME.Founded,
}

// CategorySource lists categories for the form's suggestions.
type CategorySource interface {
	List(ctx context.Context) ([]categories.Category, error)
}

// Handler serves the console screens for SMEs.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	categories CategorySource
	pages      view.Responder
	maxBytes   int64
}

// NewHandler constructs the console handler.
func NewHandler(logger *slog.Logger, service *Service, cats CategorySource, templates *view.Engine, csrf *shared.CSRFManager, maxBytes int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:     logger,
		service:    service,
		categories: cats,
		pages:      view.Responder{Templates: templates, CSRF: csrf, Logger: logger},
		maxBytes:   maxBytes,
	}
}

// MountRoutes registers the console routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/new", h.newForm)
	r.Post("/", h.create)
	r.Get("/{id}/edit", h.editForm)
	r.Post("/{id}/edit", h.update)
	r.Post("/{id}/delete", h.delete)
}

type formPage struct {
	ID         int64
	Draft      Draft
	Errors     map[string]string
	Action     string
	Categories []categories.Category
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), Filter{})
	if err != nil {
		h.logger.Error("list smes failed", slog.Any("error", err))
		h.pages.Page(w, r, "pages/smes_list.html", "UMKM", map[string]any{
			"Error": httpx.UserMessage(err),
		}, http.StatusInternalServerError)
		return
	}
	v := listing.NewView(AdminListSpec, items)
	v.SetQuery(r.URL.Query().Get("q"))
	v.SetSort(listing.ParseSortKey(r.URL.Query().Get("sort")))

	h.pages.Page(w, r, "pages/smes_list.html", "UMKM", map[string]any{
		"SMEs":     v.Items(),
		"Query":    v.Query(),
		"Sort":     v.Sort(),
		"SortKeys": listing.SortKeys,
		"Total":    v.Total(),
	}, http.StatusOK)
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Tambah UMKM", formPage{Action: basePath}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	d, err := h.draft(r)
	if err == nil {
		_, err = h.service.Create(r.Context(), d)
	}
	if err != nil {
		h.logger.Warn("create sme failed", slog.Any("error", err))
		status, message := httpx.Classify(err, apiMessages)
		h.render(w, r, "Tambah UMKM", formPage{
			Draft:  d,
			Errors: map[string]string{"general": message},
			Action: basePath,
		}, status)
		return
	}
	h.pages.Redirect(w, r, basePath, shared.FlashSuccess, "UMKM berhasil ditambahkan")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		h.pages.Redirect(w, r, basePath, shared.FlashError, apiMessages.NotFound)
		return
	}
	s, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.pages.Redirect(w, r, basePath, shared.FlashError, httpx.UserMessageWith(err, apiMessages))
		return
	}
	h.render(w, r, "Ubah UMKM", formPage{ID: id, Draft: DraftFrom(s), Action: editPath(id)}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		h.pages.Redirect(w, r, basePath, shared.FlashError, apiMessages.NotFound)
		return
	}
	d, err := h.draft(r)
	if err == nil {
		_, err = h.service.Update(r.Context(), id, d)
	}
	if err != nil {
		h.logger.Warn("update sme failed", slog.Int64("id", id), slog.Any("error", err))
		status, message := httpx.Classify(err, apiMessages)
		h.render(w, r, "Ubah UMKM", formPage{
			ID:     id,
			Draft:  d,
			Errors: map[string]string{"general": message},
			Action: editPath(id),
		}, status)
		return
	}
	h.pages.Redirect(w, r, basePath, shared.FlashSuccess, "UMKM berhasil diperbarui")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err == nil {
		err = h.service.Delete(r.Context(), id)
	}
	if err != nil {
		h.pages.Redirect(w, r, basePath, shared.FlashError, httpx.UserMessageWith(err, apiMessages))
		return
	}
	h.pages.Redirect(w, r, basePath, shared.FlashSuccess, "UMKM berhasil dihapus")
}

func (h *Handler) draft(r *http.Request) (Draft, error) {
	sub, err := forms.Parse(r, h.maxBytes)
	if err != nil {
		return Draft{}, err
	}
	return DraftFromSubmission(sub)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, title string, page formPage, status int) {
	if page.Errors == nil {
		page.Errors = map[string]string{}
	}
	if h.categories != nil {
		cats, err := h.categories.List(r.Context())
		if err != nil {
			h.logger.Warn("load categories for sme form", slog.Any("error", err))
		}
		page.Categories = cats
	}
	h.pages.Page(w, r, "pages/sme_form.html", title, page, status)
}

func editPath(id int64) string {
	return basePath + "/" + strconv.FormatInt(id, 10) + "/edit"
}
