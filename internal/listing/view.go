package listing

import "time"

// Spec tells a View how to read the entity type it lists.
type Spec[T any] struct {
	// Fields returns the designated text fields searched by the query.
	Fields func(T) []string
	// Name is the attribute used by the name orderings.
	Name func(T) string
	// Date is the attribute used by the newest/oldest orderings.
	Date func(T) time.Time
}

// View holds a fetched collection plus the current query, equality filters and
// ordering. Items recomputes the visible rows on every call.
type View[T any] struct {
	spec    Spec[T]
	all     []T
	query   string
	filters map[string]func(T) bool
	names   []string
	sort    SortKey
}

// NewView wraps items. The slice is not copied; callers hand over ownership.
func NewView[T any](spec Spec[T], items []T) *View[T] {
	return &View[T]{spec: spec, all: items, filters: make(map[string]func(T) bool)}
}

// SetItems replaces the collection, typically after a re-fetch.
func (v *View[T]) SetItems(items []T) {
	v.all = items
}

// SetQuery replaces the free-text query.
func (v *View[T]) SetQuery(q string) {
	v.query = q
}

// Query returns the current free-text query.
func (v *View[T]) Query() string {
	return v.query
}

// SetSort selects the ordering applied after filtering.
func (v *View[T]) SetSort(key SortKey) {
	v.sort = key
}

// Sort returns the current ordering.
func (v *View[T]) Sort() SortKey {
	return v.sort
}

// Where installs or replaces the named equality filter. A nil predicate removes it.
func (v *View[T]) Where(name string, pred func(T) bool) {
	if pred == nil {
		if _, ok := v.filters[name]; ok {
			delete(v.filters, name)
			for i, n := range v.names {
				if n == name {
					v.names = append(v.names[:i], v.names[i+1:]...)
					break
				}
			}
		}
		return
	}
	if _, ok := v.filters[name]; !ok {
		v.names = append(v.names, name)
	}
	v.filters[name] = pred
}

// Total is the size of the unfiltered collection.
func (v *View[T]) Total() int {
	return len(v.all)
}

// Items returns the filtered and ordered rows as a new slice.
func (v *View[T]) Items() []T {
	matcher := NewMatcher(v.query)
	out := make([]T, 0, len(v.all))
	for _, item := range v.all {
		if !matcher.Empty() && (v.spec.Fields == nil || !matcher.Match(v.spec.Fields(item)...)) {
			continue
		}
		if !v.accept(item) {
			continue
		}
		out = append(out, item)
	}
	sortItems(out, v.sort, v.spec.Name, v.spec.Date)
	return out
}

func (v *View[T]) accept(item T) bool {
	for _, name := range v.names {
		if !v.filters[name](item) {
			return false
		}
	}
	return true
}
