package smes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/etalasekita/etalase/internal/listing"
	"github.com/etalasekita/etalase/internal/platform/httpx"
	"github.com/etalasekita/etalase/internal/view"
)

// PublicHandler serves the unauthenticated SME directory.
type PublicHandler struct {
	logger  *slog.Logger
	service *Service
	pages   view.Responder
}

// NewPublicHandler constructs the directory handler.
func NewPublicHandler(logger *slog.Logger, service *Service, templates *view.Engine) *PublicHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicHandler{
		logger:  logger,
		service: service,
		pages:   view.Responder{Templates: templates, Logger: logger},
	}
}

// MountRoutes registers GET /.
func (h *PublicHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.directory)
}

func (h *PublicHandler) directory(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), Filter{})
	if err != nil {
		h.logger.Error("public sme directory", slog.Any("error", err))
		h.pages.Page(w, r, "pages/public_smes.html", "Direktori UMKM", map[string]any{
			"Error": httpx.UserMessage(err),
		}, http.StatusInternalServerError)
		return
	}
	v := listing.NewView(PublicListSpec, items)
	v.SetQuery(r.URL.Query().Get("q"))
	v.SetSort(listing.ParseSortKey(r.URL.Query().Get("sort")))

	h.pages.Page(w, r, "pages/public_smes.html", "Direktori UMKM", map[string]any{
		"SMEs":     v.Items(),
		"Query":    v.Query(),
		"Sort":     v.Sort(),
		"SortKeys": listing.SortKeys,
		"Total":    v.Total(),
	}, http.StatusOK)
}
