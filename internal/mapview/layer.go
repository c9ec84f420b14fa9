// Package mapview keeps the marker layer of the SME location map in step with
// the fetched SME collection.
package mapview

import (
	"math"
	"slices"

	"github.com/etalasekita/etalase/internal/smes"
)

// Viewport defaults: the whole archipelago.
const (
	DefaultLat  = -2.5
	DefaultLng  = 118.0
	DefaultZoom = 5
	FocusZoom   = 13
)

// Point is one mappable entity. Lat/Lng may be missing.
type Point struct {
	ID       int64
	Name     string
	City     string
	Province string
	Summary  string
	Featured bool
	Lat      *float64
	Lng      *float64
}

// FromSME converts an SME row.
func FromSME(s smes.SME) Point {
	summary := s.ShortDescription
	if summary == "" {
		summary = s.Description
	}
	return Point{
		ID:       s.ID,
		Name:     s.Name,
		City:     s.City,
		Province: s.Province,
		Summary:  summary,
		Featured: s.Featured,
		Lat:      s.Latitude,
		Lng:      s.Longitude,
	}
}

// FromSMEs converts a collection.
func FromSMEs(all []smes.SME) []Point {
	out := make([]Point, 0, len(all))
	for _, s := range all {
		out = append(out, FromSME(s))
	}
	return out
}

// Marker is a placed map pin.
type Marker struct {
	ID       int64   `json:"id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Popup    string  `json:"popup"`
	Featured bool    `json:"featured"`
}

// Focus is the viewport the client should show.
type Focus struct {
	ID        int64   `json:"id,omitempty"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Zoom      int     `json:"zoom"`
	OpenPopup bool    `json:"open_popup"`
}

// DefaultFocus is the viewport used when nothing is selected.
func DefaultFocus() Focus {
	return Focus{Lat: DefaultLat, Lng: DefaultLng, Zoom: DefaultZoom}
}

// SyncResult counts the marker changes applied by Sync.
type SyncResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// Layer maps entity ids to markers, one marker per located entity.
type Layer struct {
	markers  map[int64]Marker
	selected int64
}

// NewLayer returns an empty layer.
func NewLayer() *Layer {
	return &Layer{markers: make(map[int64]Marker)}
}

// Rebuild drops every marker and recreates them from points.
func (l *Layer) Rebuild(points []Point) Focus {
	clear(l.markers)
	for _, p := range points {
		if m, ok := markerFor(p); ok {
			l.markers[m.ID] = m
		}
	}
	return l.Focus()
}

// Sync upserts and removes markers by id so that the layer ends up as Rebuild
// would leave it, touching only what changed.
func (l *Layer) Sync(points []Point) SyncResult {
	var res SyncResult
	seen := make(map[int64]struct{}, len(points))
	for _, p := range points {
		m, ok := markerFor(p)
		if !ok {
			continue
		}
		seen[m.ID] = struct{}{}
		old, exists := l.markers[m.ID]
		switch {
		case !exists:
			res.Added++
		case old != m:
			res.Updated++
		default:
			continue
		}
		l.markers[m.ID] = m
	}
	for id := range l.markers {
		if _, ok := seen[id]; !ok {
			delete(l.markers, id)
			res.Removed++
		}
	}
	return res
}

// Select marks id as the focused entity. It reports whether a marker exists for it.
func (l *Layer) Select(id int64) (Focus, bool) {
	l.selected = id
	m, ok := l.markers[id]
	if !ok {
		return DefaultFocus(), false
	}
	return Focus{ID: m.ID, Lat: m.Lat, Lng: m.Lng, Zoom: FocusZoom, OpenPopup: true}, true
}

// Focus re-applies the current selection.
func (l *Layer) Focus() Focus {
	if l.selected == 0 {
		return DefaultFocus()
	}
	f, _ := l.Select(l.selected)
	return f
}

// Len is the number of markers.
func (l *Layer) Len() int {
	return len(l.markers)
}

// Marker returns the marker of id.
func (l *Layer) Marker(id int64) (Marker, bool) {
	m, ok := l.markers[id]
	return m, ok
}

// Markers returns the markers ordered by id.
func (l *Layer) Markers() []Marker {
	out := make([]Marker, 0, len(l.markers))
	for _, m := range l.markers {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b Marker) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

func markerFor(p Point) (Marker, bool) {
	if !finite(p.Lat) || !finite(p.Lng) {
		return Marker{}, false
	}
	return Marker{ID: p.ID, Lat: *p.Lat, Lng: *p.Lng, Popup: Popup(p), Featured: p.Featured}, true
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
