package algo

import (
	"cmp"
	"slices"
)

// TopN sorts items stably with less and returns the first limit items.
// If limit is not positive or exceeds the number of items, all items are returned in sorted order.
func TopN[T any](items []T, limit int, less func(a, b T) int) []T {
	slices.SortStableFunc(items, less)
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// Desc orders a before b when a is larger.
func Desc[T cmp.Ordered](a, b T) int {
	return cmp.Compare(b, a)
}
