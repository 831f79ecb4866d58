package editor

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/ruelucas/internal/domain"
	"github.com/simp-lee/ruelucas/internal/pkg"
)

// Phase is the lifecycle stage of an editor.
type Phase int

const (
	Closed Phase = iota
	Open
	Submitting
)

func (p Phase) String() string {
	switch p {
	case Open:
		return "open"
	case Submitting:
		return "submitting"
	default:
		return "closed"
	}
}

var (
	// ErrBusy is returned by Submit while a previous submit is still running.
	ErrBusy = domain.NewAppError(domain.CodeConflict, "a save is already in progress", nil)
	// ErrNotOpen is returned when editing or submitting a closed editor.
	ErrNotOpen = domain.NewAppError(domain.CodeConflict, "editor is not open", nil)
)

// Normalizer is implemented by drafts that clean themselves up before validation.
type Normalizer[D any] interface {
	Normalize() D
}

// SaveFunc persists a draft. id is empty when creating.
type SaveFunc[D any] func(ctx context.Context, id string, d D) error

// Snapshot is a copy of the editor state.
type Snapshot[D any] struct {
	Phase  Phase
	ID     string
	Draft  D
	Err    error
	Fields domain.FieldErrors
}

// IsOpen reports whether the editor is shown.
func (s Snapshot[D]) IsOpen() bool { return s.Phase != Closed }

// Creating reports whether the editor creates a new entity.
func (s Snapshot[D]) Creating() bool { return s.ID == "" }

// Editor owns the draft of one create/edit modal. A draft never leaves the
// editor except through the save function given to Submit.
type Editor[D any] struct {
	mu    sync.Mutex
	v     *validator.Validate
	state Snapshot[D]
	gen   uint64
}

// New creates a closed editor validating drafts with v.
func New[D any](v *validator.Validate) *Editor[D] {
	return &Editor[D]{v: v}
}

// OpenCreate opens a blank draft. Any previous draft is discarded.
func (e *Editor[D]) OpenCreate(defaults D) Snapshot[D] {
	return e.open("", defaults)
}

// OpenEdit opens a draft seeded from the entity with the given id.
func (e *Editor[D]) OpenEdit(id string, seed D) Snapshot[D] {
	return e.open(id, seed)
}

func (e *Editor[D]) open(id string, d D) Snapshot[D] {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.state = Snapshot[D]{Phase: Open, ID: id, Draft: d}
	return e.state
}

// SetDraft replaces the draft of an open editor.
func (e *Editor[D]) SetDraft(d D) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state.Phase {
	case Closed:
		return ErrNotOpen
	case Submitting:
		return ErrBusy
	}
	e.state.Draft = d
	return nil
}

// Submit validates the draft and hands it to save. An invalid draft keeps the
// editor open with per-field errors and save is not called. A failed save
// returns the editor to Open with the draft intact; a successful one closes it.
func (e *Editor[D]) Submit(ctx context.Context, save SaveFunc[D]) (Snapshot[D], error) {
	e.mu.Lock()
	switch e.state.Phase {
	case Closed:
		e.mu.Unlock()
		return Snapshot[D]{}, ErrNotOpen
	case Submitting:
		st := e.state
		e.mu.Unlock()
		return st, ErrBusy
	}

	d := e.state.Draft
	if n, ok := any(d).(Normalizer[D]); ok {
		d = n.Normalize()
		e.state.Draft = d
	}
	if err := pkg.ValidateDraft(e.v, d); err != nil {
		e.state.Err = err
		e.state.Fields = domain.FieldErrorsOf(err)
		st := e.state
		e.mu.Unlock()
		return st, err
	}

	e.state.Phase = Submitting
	e.state.Err = nil
	e.state.Fields = nil
	id, gen := e.state.ID, e.gen
	e.mu.Unlock()

	err := save(ctx, id, d)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		// Closed or reopened while saving; the result belongs to nobody.
		return e.state, err
	}
	if err != nil {
		e.state.Phase = Open
		e.state.Err = err
		e.state.Fields = domain.FieldErrorsOf(err)
		return e.state, err
	}
	e.gen++
	e.state = Snapshot[D]{}
	return e.state, nil
}

// Close discards the draft.
func (e *Editor[D]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.state = Snapshot[D]{}
}

// Snapshot returns the current editor state.
func (e *Editor[D]) Snapshot() Snapshot[D] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}
