package page

import (
	"math"
	"strings"
)

const (
	// DefaultSize is used when a request does not carry a positive size.
	DefaultSize = 12
	// MaxSize caps the number of elements a single page may hold.
	MaxSize = 500
	// MaxPage keeps Page*MaxSize within int.
	MaxPage = math.MaxInt / MaxSize
)

// Request describes which slice of a result set to load.
type Request struct {
	// Page is zero based.
	Page int
	Size int
	// Sort is "field" or "field,desc".
	Sort string
}

// Of builds a request with the given page number and size.
func Of(number, size int) Request {
	return Request{Page: number, Size: size}
}

// Normalize clamps out-of-range values to usable defaults.
func (r Request) Normalize() Request {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Page > MaxPage {
		r.Page = MaxPage
	}
	if r.Size <= 0 {
		r.Size = DefaultSize
	}
	if r.Size > MaxSize {
		r.Size = MaxSize
	}
	r.Sort = strings.TrimSpace(r.Sort)
	return r
}

// Offset is the number of rows skipped before the page starts.
func (r Request) Offset() int {
	return r.Page * r.Size
}

// SortField returns the requested sort column and whether it is descending.
func (r Request) SortField() (string, bool) {
	field, dir, _ := strings.Cut(r.Sort, ",")
	return strings.TrimSpace(field), strings.EqualFold(strings.TrimSpace(dir), "desc")
}

// Page is one slice of a larger result set.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// New assembles a page and derives its navigation fields.
func New[T any](content []T, req Request, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		Number:        req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         req.Page == 0,
		Last:          req.Page+1 >= totalPages,
	}
}

// Map converts every element while keeping the page metadata untouched.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Content))
	for _, item := range p.Content {
		out = append(out, fn(item))
	}
	return Page[U]{
		Content:       out,
		Number:        p.Number,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		First:         p.First,
		Last:          p.Last,
	}
}
