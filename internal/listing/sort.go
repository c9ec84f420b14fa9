package listing

import (
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects one of the fixed list orderings.
type SortKey string

const (
	SortNone     SortKey = ""
	SortNameAsc  SortKey = "name-asc"
	SortNameDesc SortKey = "name-desc"
	SortNewest   SortKey = "newest"
	SortOldest   SortKey = "oldest"
)

// SortKeys lists the selectable orderings in display order.
var SortKeys = []SortKey{SortNameAsc, SortNameDesc, SortNewest, SortOldest}

// ParseSortKey maps a query value to a SortKey. Unknown values yield SortNone.
func ParseSortKey(v string) SortKey {
	key := SortKey(v)
	if slices.Contains(SortKeys, key) {
		return key
	}
	return SortNone
}

// Label is the console caption of the ordering.
func (k SortKey) Label() string {
	switch k {
	case SortNameAsc:
		return "Nama: A-Z"
	case SortNameDesc:
		return "Nama: Z-A"
	case SortNewest:
		return "Terbaru"
	case SortOldest:
		return "Terlama"
	default:
		return "Bawaan"
	}
}

// sortItems orders items in place. The sort is stable so ties keep fetch order.
func sortItems[T any](items []T, key SortKey, name func(T) string, date func(T) time.Time) {
	switch key {
	case SortNameAsc, SortNameDesc:
		if name == nil {
			return
		}
		coll := collate.New(language.Indonesian, collate.IgnoreCase)
		slices.SortStableFunc(items, func(a, b T) int {
			c := coll.CompareString(name(a), name(b))
			if key == SortNameDesc {
				return -c
			}
			return c
		})
	case SortNewest, SortOldest:
		if date == nil {
			return
		}
		slices.SortStableFunc(items, func(a, b T) int {
			c := date(a).Compare(date(b))
			if key == SortNewest {
				return -c
			}
			return c
		})
	}
}
