// Package utils provides small helpers shared across layers that carry no
// logbook semantics of their own.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 int, returning def when s is empty or
// not a valid integer. Surrounding whitespace is not trimmed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page is a 1-based page window over an ordered listing.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads page and page_size query values. Unparseable values fall
// back to page 1 and defSize; the result is clamped to Number >= 1 and
// 1 <= Size <= maxSize.
func ParsePage(number, size string, defSize, maxSize int) Page {
	p := Page{
		Number: AtoiDefault(number, 1),
		Size:   AtoiDefault(size, defSize),
	}
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = 1
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}
	return p
}

// Offset is the number of rows preceding the page.
func (p Page) Offset() int {
	if p.Number < 1 || p.Size < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// TotalPages returns how many pages of size hold total rows.
func TotalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
