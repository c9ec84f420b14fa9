package categories

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/etalasekita/etalase/internal/forms"
	"github.com/etalasekita/etalase/internal/listing"
	"github.com/etalasekita/etalase/internal/platform/httpx"
	"github.com/etalasekita/etalase/internal/shared"
	"github.com/etalasekita/etalase/internal/view"
)

const basePath = "/admin/categories"

// ListSpec tells the list view how to search categories.
var ListSpec = listing.Spec[Category]{
	Fields: func(c Category) []string { return []string{c.Name, c.Slug} },
	Name:   func(c Category) string { return c.Name },
	Date:   func(c Category) time.Time { return c.CreatedAt },
}

// Handler serves the console screens for categories.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	pages    view.Responder
	maxBytes int64
}

// NewHandler constructs the console handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, maxBytes int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		pages:    view.Responder{Templates: templates, CSRF: csrf, Logger: logger},
		maxBytes: maxBytes,
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
	ID     int64
	Draft  Draft
	Errors map[string]string
	Action string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list categories failed", slog.Any("error", err))
		h.pages.Page(w, r, "pages/categories_list.html", "Kategori", map[string]any{
			"Error": httpx.UserMessage(err),
		}, http.StatusInternalServerError)
		return
	}
	v := listing.NewView(ListSpec, items)
	v.SetQuery(r.URL.Query().Get("q"))

	h.pages.Page(w, r, "pages/categories_list.html", "Kategori", map[string]any{
		"Categories": v.Items(),
		"Query":      v.Query(),
		"Total":      v.Total(),
	}, http.StatusOK)
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.pages.Page(w, r, "pages/category_form.html", "Tambah Kategori", formPage{
		Errors: map[string]string{},
		Action: basePath,
	}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sub, err := forms.Parse(r, h.maxBytes)
	if err != nil {
		h.pages.Redirect(w, r, basePath+"/new", shared.FlashError, httpx.UserMessage(err))
		return
	}
	draft := DraftFromSubmission(sub)
	if _, err := h.service.Create(r.Context(), draft); err != nil {
		h.logger.Warn("create category failed", slog.Any("error", err))
		status, message := httpx.Classify(err, apiMessages)
		h.pages.Page(w, r, "pages/category_form.html", "Tambah Kategori", formPage{
			Draft:  draft,
			Errors: map[string]string{"general": message},
			Action: basePath,
		}, status)
		return
	}
	h.pages.Redirect(w, r, basePath, shared.FlashSuccess, "Kategori berhasil ditambahkan")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		h.pages.Redirect(w, r, basePath, shared.FlashError, apiMessages.NotFound)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.pages.Redirect(w, r, basePath, shared.FlashError, httpx.UserMessageWith(err, apiMessages))
		return
	}
	h.pages.Page(w, r, "pages/category_form.html", "Ubah Kategori", formPage{
		ID:     id,
		Draft:  DraftFrom(c),
		Errors: map[string]string{},
		Action: editPath(id),
	}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		h.pages.Redirect(w, r, basePath, shared.FlashError, apiMessages.NotFound)
		return
	}
	sub, err := forms.Parse(r, h.maxBytes)
	if err != nil {
		h.pages.Redirect(w, r, editPath(id), shared.FlashError, httpx.UserMessage(err))
		return
	}
	draft := DraftFromSubmission(sub)
	if _, err := h.service.Update(r.Context(), id, draft); err != nil {
		h.logger.Warn("update category failed", slog.Int64("id", id), slog.Any("error", err))
		status, message := httpx.Classify(err, apiMessages)
		h.pages.Page(w, r, "pages/category_form.html", "Ubah Kategori", formPage{
			ID:     id,
			Draft:  draft,
			Errors: map[string]string{"general": message},
			Action: editPath(id),
		}, status)
		return
	}
	h.pages.Redirect(w, r, basePath, shared.FlashSuccess, "Kategori berhasil diperbarui")
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
	h.pages.Redirect(w, r, basePath, shared.FlashSuccess, "Kategori berhasil dihapus")
}

func editPath(id int64) string {
	return basePath + "/" + strconv.FormatInt(id, 10) + "/edit"
}
