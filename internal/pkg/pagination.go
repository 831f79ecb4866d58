package pkg

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/pagination"

	"github.com/simp-lee/ruelucas/internal/domain"
)

const (
	defaultPage = 1
	// DefaultPageSize is the page size of every list screen unless configured otherwise.
	DefaultPageSize = 10
	// MaxPageSize bounds configured page sizes.
	MaxPageSize  = 100
	maxSearchLen = 100
)

// ParseQuery extracts page, search text, and status filter from query params.
// Invalid or missing pages default to 1; the upper bound is applied once the
// page count is known.
func ParseQuery(c *gin.Context) domain.Query {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	if err != nil || page < 1 {
		page = defaultPage
	}

	return domain.Query{
		Page:   page,
		Search: truncateRunes(strings.TrimSpace(c.Query("search")), maxSearchLen),
		Status: strings.TrimSpace(c.Query("status")),
	}
}

// QueryFromRequest is ParseQuery for requests that carry at least one of the
// filter parameters. ok is false when none is present, so the screen keeps
// its current filter.
func QueryFromRequest(c *gin.Context) (q domain.Query, ok bool) {
	for _, k := range []string{"page", "search", "status"} {
		if _, present := c.GetQuery(k); present {
			return ParseQuery(c), true
		}
	}
	return domain.Query{}, false
}

// ServerPage describes a page the remote API already cut out. Page count and
// neighbours come from the paginator. A page past the end keeps its number
// and loses its items, so the caller can tell the collection has shrunk.
func ServerPage[T any](ctx context.Context, items []T, total, page, pageSize int) (domain.PageResult[T], error) {
	page, pageSize = max(page, 1), normalizePageSize(pageSize)
	want := (page - 1) * pageSize
	p, err := paginate(ctx, total, page, pageSize, func(offset, _ int) []T {
		if offset != want {
			return nil
		}
		return items
	})
	if err != nil {
		return domain.PageResult[T]{}, err
	}

	res := fromPagination(p)
	if p.CurrentPage != page {
		res.Items = []T{}
		res.Page = page
		res.HasPrev = true
		res.HasNext = false
	}
	return res, nil
}

// BuildPage slices one page out of a fully fetched collection. A page past the
// last one is clamped to it.
func BuildPage[T any](ctx context.Context, all []T, page, pageSize int) (domain.PageResult[T], error) {
	p, err := paginate(ctx, len(all), max(page, 1), normalizePageSize(pageSize), func(offset, limit int) []T {
		end := min(offset+limit, len(all))
		out := make([]T, end-offset)
		copy(out, all[offset:end])
		return out
	})
	if err != nil {
		return domain.PageResult[T]{}, err
	}
	return fromPagination(p), nil
}

func paginate[T any](ctx context.Context, total, page, pageSize int, slice func(offset, limit int) []T) (*pagination.Pagination[T], error) {
	p, err := pagination.NewPaginator[T](
		pagination.WithItemsPerPage[T](pageSize),
		pagination.WithKnownTotal[T](int64(max(total, 0))),
		pagination.WithSliceCallback(func(_ context.Context, offset, limit int) ([]T, error) {
			return slice(offset, limit), nil
		}),
	).Paginate(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("paginate: %w", err)
	}
	return p, nil
}

// fromPagination converts a paginator result into the page view. An empty
// collection has no pages, where the paginator reports one.
func fromPagination[T any](p *pagination.Pagination[T]) domain.PageResult[T] {
	pages := p.TotalPages
	if p.TotalItems == 0 {
		pages = 0
	}
	return domain.PageResult[T]{
		Items:   p.Items,
		Total:   int(p.TotalItems),
		Page:    p.CurrentPage,
		Pages:   pages,
		HasPrev: p.HasPreviousPage(),
		HasNext: p.HasNextPage(),
	}
}

func normalizePageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	return n
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
