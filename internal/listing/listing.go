// Package listing filters, sorts and pages fully loaded in-memory collections.
package listing

import (
	"slices"
	"strings"

	"github.com/irrigo/irrigo/internal/shared"
)

// Page is one slice of a listing together with its pagination metadata.
type Page[T any] struct {
	Items      []T               `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

// Filter returns the items matching every predicate, preserving order.
// Nil predicates are ignored. The input slice is never modified.
func Filter[T any](items []T, preds ...func(T) bool) []T {
	out := make([]T, 0, len(items))
next:
	for _, item := range items {
		for _, pred := range preds {
			if pred != nil && !pred(item) {
				continue next
			}
		}
		out = append(out, item)
	}
	return out
}

// SortBy returns a stably sorted copy of items.
func SortBy[T any](items []T, cmp func(a, b T) int) []T {
	out := slices.Clone(items)
	if cmp != nil {
		slices.SortStableFunc(out, cmp)
	}
	return out
}

// Paginate slices items into the requested page. Out-of-range pages yield an
// empty item list with metadata still describing the whole collection.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	page, perPage = shared.NormalizePage(page, perPage)
	meta := shared.NewPagination(page, perPage, len(items))
	start := meta.Offset()
	if start < 0 || start >= len(items) {
		return Page[T]{Items: []T{}, Pagination: meta}
	}
	end := min(start+perPage, len(items))
	return Page[T]{Items: slices.Clone(items[start:end]), Pagination: meta}
}

// ContainsFold reports whether any of fields contains term, ignoring case.
// An empty term matches everything.
func ContainsFold(term string, fields ...string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
