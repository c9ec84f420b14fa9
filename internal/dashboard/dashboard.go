// Package dashboard renders the console landing page.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/etalasekita/etalase/internal/products"
	"github.com/etalasekita/etalase/internal/platform/httpx"
	"github.com/etalasekita/etalase/internal/shared"
	"github.com/etalasekita/etalase/internal/smes"
	"github.com/etalasekita/etalase/internal/view"
)

// LatestCount is how many recent rows of each kind the page lists.
const LatestCount = 5

// ProductSource lists products newest first.
type ProductSource interface {
	List(ctx context.Context, f products.Filter) ([]products.Product, error)
}

// SMESource lists SMEs newest first.
type SMESource interface {
	List(ctx context.Context, f smes.Filter) ([]smes.SME, error)
}

// Stats are the dashboard counters.
type Stats struct {
	Products         int
	SMEs             int
	FeaturedProducts int
	Locations        int
	Provinces        int
}

// Overview is everything the dashboard shows.
type Overview struct {
	Stats          Stats
	LatestProducts []products.Product
	LatestSMEs     []smes.SME
}

// Service assembles the overview.
type Service struct {
	products ProductSource
	smes     SMESource
}

// NewService constructs a Service.
func NewService(p ProductSource, s SMESource) *Service {
	return &Service{products: p, smes: s}
}

// Overview fetches both collections concurrently and summarises them.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var (
		prods  []products.Product
		owners []smes.SME
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prods, err = s.products.List(ctx, products.Filter{})
		return err
	})
	g.Go(func() error {
		var err error
		owners, err = s.smes.List(ctx, smes.Filter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return Summarise(prods, owners), nil
}

// Summarise computes the overview from already fetched, newest-first collections.
func Summarise(prods []products.Product, owners []smes.SME) Overview {
	ov := Overview{Stats: Stats{Products: len(prods), SMEs: len(owners)}}
	for _, p := range prods {
		if p.Featured {
			ov.Stats.FeaturedProducts++
		}
	}
	provinces := make(map[string]struct{})
	for _, s := range owners {
		if s.HasLocation() {
			ov.Stats.Locations++
		}
		if s.Province != "" {
			provinces[s.Province] = struct{}{}
		}
	}
	ov.Stats.Provinces = len(provinces)
	ov.LatestProducts = prods[:min(LatestCount, len(prods))]
	ov.LatestSMEs = owners[:min(LatestCount, len(owners))]
	return ov
}

// Handler serves GET /admin.
type Handler struct {
	logger  *slog.Logger
	service *Service
	pages   view.Responder
}

// NewHandler constructs the dashboard handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:  logger,
		service: service,
		pages:   view.Responder{Templates: templates, CSRF: csrf, Logger: logger},
	}
}

// MountRoutes registers the dashboard route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	ov, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.Error("dashboard overview", slog.Any("error", err))
		h.pages.Page(w, r, "pages/dashboard.html", "Dasbor", map[string]any{
			"Error": httpx.UserMessage(err),
		}, http.StatusInternalServerError)
		return
	}
	h.pages.Page(w, r, "pages/dashboard.html", "Dasbor", map[string]any{"Overview": ov}, http.StatusOK)
}
