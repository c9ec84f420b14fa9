package mapview

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/etalasekita/etalase/internal/forms"
	"github.com/etalasekita/etalase/internal/listing"
	"github.com/etalasekita/etalase/internal/platform/httpx"
	"github.com/etalasekita/etalase/internal/shared"
	"github.com/etalasekita/etalase/internal/smes"
	"github.com/etalasekita/etalase/internal/view"
)

const basePath = "/admin/map"

var messages = httpx.Messages{NotFound: "UMKM tidak ditemukan"}

// Locations reads SMEs and edits their coordinates.
type Locations interface {
	List(ctx context.Context, f smes.Filter) ([]smes.SME, error)
	SetLocation(ctx context.Context, id int64, lat, lng forms.Null[float64]) (smes.SME, error)
}

// Handler serves the location map console.
type Handler struct {
	logger    *slog.Logger
	locations Locations
	pages     view.Responder
	maxBytes  int64
}

// NewHandler constructs the map handler.
func NewHandler(logger *slog.Logger, locations Locations, templates *view.Engine, csrf *shared.CSRFManager, maxBytes int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		locations: locations,
		pages:     view.Responder{Templates: templates, CSRF: csrf, Logger: logger},
		maxBytes:  maxBytes,
	}
}

// MountRoutes registers the map routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.page)
	r.Get("/markers", h.markers)
	r.Post("/{id}", h.setLocation)
}

// Snapshot is the state rendered by the page and returned by /markers.
type Snapshot struct {
	Markers []Marker `json:"markers"`
	Focus   Focus    `json:"focus"`
}

type state struct {
	all      []smes.SME
	visible  []smes.SME
	query    string
	selected int64
	snapshot Snapshot
}

func (h *Handler) load(r *http.Request) (state, error) {
	all, err := h.locations.List(r.Context(), smes.Filter{})
	if err != nil {
		return state{}, err
	}
	v := listing.NewView(smes.AdminListSpec, all)
	v.SetQuery(r.URL.Query().Get("q"))
	v.SetSort(listing.SortNameAsc)
	visible := v.Items()

	selected, _ := strconv.ParseInt(r.URL.Query().Get("selected"), 10, 64)
	layer := NewLayer()
	layer.Rebuild(FromSMEs(visible))
	focus := DefaultFocus()
	if selected > 0 {
		focus, _ = layer.Select(selected)
	}
	return state{
		all:      all,
		visible:  visible,
		query:    v.Query(),
		selected: selected,
		snapshot: Snapshot{Markers: layer.Markers(), Focus: focus},
	}, nil
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	st, err := h.load(r)
	if err != nil {
		h.logger.Error("load map", slog.Any("error", err))
		h.pages.Page(w, r, "pages/map.html", "Peta UMKM", map[string]any{
			"Error": httpx.UserMessage(err),
		}, http.StatusInternalServerError)
		return
	}
	var selected *smes.SME
	for i := range st.all {
		if st.all[i].ID == st.selected {
			selected = &st.all[i]
			break
		}
	}
	h.pages.Page(w, r, "pages/map.html", "Peta UMKM", map[string]any{
		"SMEs":     st.visible,
		"Query":    st.query,
		"Selected": selected,
		"Snapshot": st.snapshot,
		"Stats":    Summarise(FromSMEs(st.all), 3),
	}, http.StatusOK)
}

func (h *Handler) markers(w http.ResponseWriter, r *http.Request) {
	st, err := h.load(r)
	if err != nil {
		status, message := httpx.Classify(err, messages)
		h.logger.Error("load map markers", slog.Any("error", err))
		httpx.Error(w, status, message)
		return
	}
	httpx.JSON(w, http.StatusOK, st.snapshot)
}

func (h *Handler) setLocation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		h.pages.Redirect(w, r, basePath, shared.FlashError, messages.NotFound)
		return
	}
	back := basePath + "?selected=" + strconv.FormatInt(id, 10)

	sub, err := forms.Parse(r, h.maxBytes)
	if err != nil {
		h.pages.Redirect(w, r, back, shared.FlashError, httpx.UserMessage(err))
		return
	}
	lat, err := sub.Float64("latitude")
	if err != nil {
		h.pages.Redirect(w, r, back, shared.FlashError, httpx.UserMessage(err))
		return
	}
	lng, err := sub.Float64("longitude")
	if err != nil {
		h.pages.Redirect(w, r, back, shared.FlashError, httpx.UserMessage(err))
		return
	}
	updated, err := h.locations.SetLocation(r.Context(), id, lat, lng)
	if err != nil {
		h.logger.Warn("set sme location", slog.Int64("id", id), slog.Any("error", err))
		h.pages.Redirect(w, r, back, shared.FlashError, httpx.UserMessageWith(err, messages))
		return
	}
	msg := "Lokasi UMKM berhasil disimpan"
	if !updated.HasLocation() {
		msg = "Lokasi UMKM dihapus"
	}
	h.pages.Redirect(w, r, back, shared.FlashSuccess, msg)
}
