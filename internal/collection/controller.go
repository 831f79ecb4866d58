package collection

import (
	"context"
	"sync"

	"github.com/simp-lee/ruelucas/internal/domain"
)

// Fetcher loads one page of a remote collection.
type Fetcher[T any] func(ctx context.Context, q domain.Query, pageSize int) (domain.PageResult[T], error)

// Controller drives the fetch-and-render cycle of one list screen. Only the
// most recent Load may change the state: an older in-flight load is cancelled
// and its response is dropped.
type Controller[T any] struct {
	mu     sync.Mutex
	fetch  Fetcher[T]
	state  State[T]
	cancel context.CancelFunc
	closed bool
}

// New creates a Controller with an unloaded state.
func New[T any](fetch Fetcher[T], pageSize int) *Controller[T] {
	return &Controller[T]{
		fetch: fetch,
		state: NewState[T](pageSize),
	}
}

// Snapshot returns the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Update applies a pure transition to the state.
func (c *Controller[T]) Update(fn func(State[T]) State[T]) State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = fn(c.state)
	return c.state
}

// Load fetches the page described by the current query. It returns
// domain.ErrSuperseded when a newer Load started before this one
// completed; in that case the state is left to the newer load.
//
// When the response shows the collection has shrunk below the requested page,
// the page is clamped and fetched once more. This also covers a first load
// whose page came from a link, since the page count is unknown until then.
func (c *Controller[T]) Load(ctx context.Context) (State[T], error) {
	for attempt := 0; ; attempt++ {
		st, retry, err := c.loadOnce(ctx, attempt == 0)
		if !retry {
			return st, err
		}
	}
}

func (c *Controller[T]) loadOnce(parent context.Context, mayRetry bool) (State[T], bool, error) {
	c.mu.Lock()
	if c.closed {
		st := c.state
		c.mu.Unlock()
		return st, false, domain.ErrSuperseded
	}
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	c.state.Seq++
	seq := c.state.Seq
	c.state.Busy = true
	q := c.state.Query
	size := c.state.PageSize
	c.mu.Unlock()

	view, err := c.fetch(ctx, q, size)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.state.Seq || c.closed {
		return c.state, false, domain.ErrSuperseded
	}
	c.cancel = nil

	if err != nil {
		c.state.Busy = false
		c.state = c.state.Fail(err)
		return c.state, false, err
	}

	// A fetcher that clamps on its own reports a different page; nothing to refetch.
	if mayRetry && view.Page == q.Page && q.Page > max(view.Pages, 1) {
		c.state.Query.Page = max(view.Pages, 1)
		return c.state, true, nil
	}

	c.state.Busy = false
	c.state = c.state.Apply(view)
	return c.state, false, nil
}

// Close cancels any in-flight load. Later loads fail immediately.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.closed = true
	c.state.Busy = false
}
