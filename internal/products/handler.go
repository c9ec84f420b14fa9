package products

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/etalasekita/etalase/internal/categories"
	"github.com/etalasekita/etalase/internal/forms"
	"github.com/etalasekita/etalase/internal/listing"
	"github.com/etalasekita/etalase/internal/platform/httpx"
	"github.com/etalasekita/etalase/internal/shared"
	"github.com/etalasekita/etalase/internal/smes"
	"github.com/etalasekita/etalase/internal/view"
)

const basePath = "/admin/products"

// ListSpec tells the list view how to search products.
var ListSpec = listing.Spec[Product]{
	Fields: func(p Product) []string { return []string{p.Name, p.Description} },
	Name:   func(p Product) string { return p.Name },
	Date:   func(p Product) time.Time { return p.CreatedAt },
}

// CategorySource lists categories for filters and form options.
type CategorySource interface {
	List(ctx context.Context) ([]categories.Category, error)
}

// SMESource lists SMEs for filters and form options.
type SMESource interface {
	List(ctx context.Context, f smes.Filter) ([]smes.SME, error)
}

// Row is a product with its references resolved for display.
type Row struct {
	Product
	CategoryName string
	SMEName      string
}

// Handler serves the console screens for products.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	categories CategorySource
	smes       SMESource
	pages      view.Responder
	maxBytes   int64
}

// NewHandler constructs the console handler.
func NewHandler(logger *slog.Logger, service *Service, cats CategorySource, owners SMESource, templates *view.Engine, csrf *shared.CSRFManager, maxBytes int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:     logger,
		service:    service,
		categories: cats,
		smes:       owners,
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

// Options are the reference collections offered by filters and forms.
type Options struct {
	Categories []categories.Category
	SMEs       []smes.SME
}

// loadOptions fetches the reference collections concurrently.
func (h *Handler) loadOptions(ctx context.Context) (Options, error) {
	var opts Options
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		opts.Categories, err = h.categories.List(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		opts.SMEs, err = h.smes.List(ctx, smes.Filter{})
		return err
	})
	return opts, g.Wait()
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var (
		items []Product
		opts  Options
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		items, err = h.service.List(ctx, Filter{})
		return err
	})
	g.Go(func() error {
		var err error
		opts, err = h.loadOptions(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		h.pages.Page(w, r, "pages/products_list.html", "Produk", map[string]any{
			"Error": httpx.UserMessage(err),
		}, http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	v := listing.NewView(ListSpec, items)
	v.SetQuery(q.Get("q"))
	v.Where("category", listing.EqualString(q.Get("category"), func(p Product) string {
		if p.CategorySlug == nil {
			return ""
		}
		return *p.CategorySlug
	}))
	v.Where("sme", listing.EqualID(q.Get("sme"), func(p Product) *int64 { return p.SMEID }))

	visible := v.Items()
	rows := make([]Row, 0, len(visible))
	for _, p := range visible {
		rows = append(rows, Row{
			Product:      p,
			CategoryName: categories.Label(opts.Categories, p.CategorySlug),
			SMEName:      smes.Label(opts.SMEs, p.SMEID),
		})
	}

	h.pages.Page(w, r, "pages/products_list.html", "Produk", map[string]any{
		"Rows":       rows,
		"Query":      v.Query(),
		"Category":   q.Get("category"),
		"SME":        q.Get("sme"),
		"Categories": opts.Categories,
		"SMEs":       opts.SMEs,
		"Total":      v.Total(),
	}, http.StatusOK)
}

type formPage struct {
	ID     int64
	Draft  Draft
	Errors map[string]string
	Action string
	Options
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Tambah Produk", formPage{Action: basePath}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	d, err := h.draft(r)
	if err == nil {
		_, err = h.service.Create(r.Context(), d)
	}
	if err != nil {
		h.logger.Warn("create product failed", slog.Any("error", err))
		status, message := httpx.Classify(err, apiMessages)
		h.render(w, r, "Tambah Produk", formPage{
			Draft:  d,
			Errors: map[string]string{"general": message},
			Action: basePath,
		}, status)
		return
	}
	h.pages.Redirect(w, r, basePath, shared.FlashSuccess, "Produk berhasil ditambahkan")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		h.pages.Redirect(w, r, basePath, shared.FlashError, apiMessages.NotFound)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.pages.Redirect(w, r, basePath, shared.FlashError, httpx.UserMessageWith(err, apiMessages))
		return
	}
	h.render(w, r, "Ubah Produk", formPage{ID: id, Draft: DraftFrom(p), Action: editPath(id)}, http.StatusOK)
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
		h.logger.Warn("update product failed", slog.Int64("id", id), slog.Any("error", err))
		status, message := httpx.Classify(err, apiMessages)
		h.render(w, r, "Ubah Produk", formPage{
			ID:     id,
			Draft:  d,
			Errors: map[string]string{"general": message},
			Action: editPath(id),
		}, status)
		return
	}
	h.pages.Redirect(w, r, basePath, shared.FlashSuccess, "Produk berhasil diperbarui")
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
	h.pages.Redirect(w, r, basePath, shared.FlashSuccess, "Produk berhasil dihapus")
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
	opts, err := h.loadOptions(r.Context())
	if err != nil {
		h.logger.Warn("load product form options", slog.Any("error", err))
		if _, ok := page.Errors["general"]; !ok {
			page.Errors["general"] = httpx.UserMessage(err)
		}
	}
	page.Options = opts
	h.pages.Page(w, r, "pages/product_form.html", title, page, status)
}

func editPath(id int64) string {
	return basePath + "/" + strconv.FormatInt(id, 10) + "/edit"
}
