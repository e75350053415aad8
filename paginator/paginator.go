// Package paginator splits a slice into fixed size, 1-indexed pages.
package paginator

import (
	"errors"
	"fmt"
)

// ErrInvalidPage is returned for page numbers outside 1..PageCount.
var ErrInvalidPage = errors.New("invalid page")

// Paginator serves pages of items. It does not copy items.
type Paginator[T any] struct {
	items []T
	size  int
}

// New returns a Paginator over items. A size below 1 is treated as 1.
func New[T any](items []T, size int) Paginator[T] {
	if size < 1 {
		size = 1
	}
	return Paginator[T]{items: items, size: size}
}

// PageSize returns the number of items per page.
func (p Paginator[T]) PageSize() int { return p.size }

// Len returns the total number of items.
func (p Paginator[T]) Len() int { return len(p.items) }

// PageCount returns the number of pages; 0 when there are no items.
func (p Paginator[T]) PageCount() int {
	return (len(p.items) + p.size - 1) / p.size
}

// Page returns page n, starting at 1.
func (p Paginator[T]) Page(n int) ([]T, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w %d: page has to be greater than 0", ErrInvalidPage, n)
	}
	if n > p.PageCount() {
		return nil, fmt.Errorf("%w %d: page has to be less than or equal to page count (%d)", ErrInvalidPage, n, p.PageCount())
	}
	start := (n - 1) * p.size
	end := min(start+p.size, len(p.items))
	return p.items[start:end:end], nil
}

// Clamp returns n if it is a valid page number, otherwise 1.
func (p Paginator[T]) Clamp(n int) int {
	if n < 1 || n > p.PageCount() {
		return 1
	}
	return n
}

// HasPrev reports whether page n has a previous page.
func (p Paginator[T]) HasPrev(n int) bool { return n > 1 }

// HasNext reports whether page n has a next page.
func (p Paginator[T]) HasNext(n int) bool { return n < p.PageCount() }
