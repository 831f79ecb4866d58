package collection

import (
	"github.com/simp-lee/ruelucas/internal/domain"
	"github.com/simp-lee/ruelucas/internal/pkg"
)

// State is the screen state of one remote collection. Transitions are pure:
// each returns a new State and leaves the receiver untouched.
type State[T any] struct {
	Query    domain.Query
	PageSize int
	View     domain.PageResult[T]
	Err      error
	Busy     bool
	Seq      uint64
	Loaded   bool
}

// NewState returns the initial state: page 1, no filters, nothing loaded.
func NewState[T any](pageSize int) State[T] {
	if pageSize <= 0 {
		pageSize = pkg.DefaultPageSize
	}
	return State[T]{
		Query:    domain.Query{Page: 1},
		PageSize: pageSize,
		View:     domain.PageResult[T]{Items: []T{}, Page: 1},
	}
}

// WithPage moves to page p. Once a page count is known the page is clamped to
// [1, max(pages, 1)]; before the first load only the lower bound applies.
func (s State[T]) WithPage(p int) State[T] {
	if s.Loaded {
		s.Query.Page = min(max(p, 1), max(s.View.Pages, 1))
	} else {
		s.Query.Page = max(p, 1)
	}
	return s
}

// WithSearch sets the search text and goes back to page 1 when it changed.
func (s State[T]) WithSearch(search string) State[T] {
	if search != s.Query.Search {
		s.Query.Search = search
		s.Query.Page = 1
	}
	return s
}

// WithStatus sets the status filter and goes back to page 1 when it changed.
func (s State[T]) WithStatus(status string) State[T] {
	if status != s.Query.Status {
		s.Query.Status = status
		s.Query.Page = 1
	}
	return s
}

// WithQuery applies a full query as the screen receives it: filters first,
// and the requested page only if the filters did not change.
func (s State[T]) WithQuery(q domain.Query) State[T] {
	next := s.WithSearch(q.Search).WithStatus(q.Status)
	if next.Query.Search != s.Query.Search || next.Query.Status != s.Query.Status {
		return next
	}
	return next.WithPage(q.Page)
}

// Apply replaces the view in full and clears any previous error.
func (s State[T]) Apply(view domain.PageResult[T]) State[T] {
	if view.Items == nil {
		view.Items = []T{}
	}
	if view.Page < 1 {
		view.Page = s.Query.Page
	}
	s.View = view
	s.Query.Page = view.Page
	s.Err = nil
	s.Loaded = true
	return s
}

// Fail records err and keeps the previous items visible.
func (s State[T]) Fail(err error) State[T] {
	s.Err = err
	return s
}

// HasNext reports whether a page follows the one on screen.
func (s State[T]) HasNext() bool {
	return s.View.HasNext
}

// HasPrev reports whether a page precedes the one on screen.
func (s State[T]) HasPrev() bool {
	return s.View.HasPrev
}

// Empty reports whether a successful load returned no items.
func (s State[T]) Empty() bool {
	return s.Loaded && len(s.View.Items) == 0
}
