// Package listing filters and sorts fetched entity collections for list screens.
//
// Every list screen keeps the whole collection in memory and derives the visible
// rows from it on each request; nothing here talks to the store.
package listing

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// All is the option value that disables an equality filter.
const All = "all"

// Matcher tests entity fields against a free-text query using Unicode case folding.
type Matcher struct {
	needle string
	fold   cases.Caser
}

// NewMatcher prepares query for repeated matching. Only the empty query matches
// everything; whitespace is part of the needle like any other character.
func NewMatcher(query string) Matcher {
	fold := cases.Fold()
	return Matcher{needle: fold.String(query), fold: fold}
}

// Empty reports whether the matcher accepts every input.
func (m Matcher) Empty() bool {
	return m.needle == ""
}

// Match reports whether any field contains the query, ignoring case.
func (m Matcher) Match(fields ...string) bool {
	if m.needle == "" {
		return true
	}
	for _, field := range fields {
		if field == "" {
			continue
		}
		if strings.Contains(m.fold.String(field), m.needle) {
			return true
		}
	}
	return false
}

// EqualString builds an equality predicate on a string attribute.
// It returns nil (no filtering) when selected is empty or All.
func EqualString[T any](selected string, get func(T) string) func(T) bool {
	if selected == "" || selected == All {
		return nil
	}
	return func(item T) bool {
		return get(item) == selected
	}
}

// EqualID builds an equality predicate on an optional numeric reference.
// A selection that is not a number matches nothing, mirroring a select box
// whose option no longer exists.
func EqualID[T any](selected string, get func(T) *int64) func(T) bool {
	if selected == "" || selected == All {
		return nil
	}
	want, err := strconv.ParseInt(selected, 10, 64)
	if err != nil {
		return func(T) bool { return false }
	}
	return func(item T) bool {
		id := get(item)
		return id != nil && *id == want
	}
}
