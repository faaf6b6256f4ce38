// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// MaxPageSize caps page_size on list endpoints.
const MaxPageSize = 200

// PageParams normalizes 1-based page and size: page < 1 becomes 1, size < 1
// becomes def, and size is capped at MaxPageSize.
func PageParams(page, size, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = def
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// Paginate returns the items of page (1-based) with at most size entries,
// plus the total count. Out-of-range pages yield an empty, non-nil slice.
func Paginate[T any](items []T, page, size int) ([]T, int) {
	total := len(items)
	if page < 1 || size < 1 {
		return []T{}, total
	}
	start := (page - 1) * size
	if start >= total {
		return []T{}, total
	}
	end := start + size
	if end > total {
		end = total
	}
	return items[start:end], total
}
