package capability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/simp-lee/ruelucas/internal/domain"
)

// Availability is what the dashboard knows about a remote action.
type Availability int

const (
	Unknown Availability = iota
	Available
	Unavailable
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ParseAvailability parses the configuration spelling of an Availability.
func ParseAvailability(s string) (Availability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unknown", "":
		return Unknown, nil
	case "available":
		return Available, nil
	case "unavailable":
		return Unavailable, nil
	default:
		return Unknown, fmt.Errorf("invalid availability %q (allowed: unknown, available, unavailable)", s)
	}
}

// Action names a mutation of the remote API.
type Action string

const (
	ReservationsCreate Action = "reservations.create"
	ReservationsUpdate Action = "reservations.update"
	ReservationsDelete Action = "reservations.delete"
	ReviewsCreate      Action = "reviews.create"
	ReviewsUpdate      Action = "reviews.update"
	ReviewsDelete      Action = "reviews.delete"
)

// Actions lists every gated action.
var Actions = []Action{
	ReservationsCreate, ReservationsUpdate, ReservationsDelete,
	ReviewsCreate, ReviewsUpdate, ReviewsDelete,
}

// Defaults returns the initial knowledge about the remote API: reservations
// are fully supported, review update and delete have never been confirmed.
func Defaults() map[Action]Availability {
	return map[Action]Availability{
		ReservationsCreate: Available,
		ReservationsUpdate: Available,
		ReservationsDelete: Available,
		ReviewsCreate:      Available,
		ReviewsUpdate:      Unknown,
		ReviewsDelete:      Unknown,
	}
}

// Registry tracks the availability of remote actions. It is shared by every
// session because it describes the remote API, not a user.
type Registry struct {
	mu    sync.RWMutex
	state map[Action]Availability
}

// NewRegistry creates a Registry from Defaults overlaid with initial.
func NewRegistry(initial map[Action]Availability) *Registry {
	state := Defaults()
	for a, v := range initial {
		state[a] = v
	}
	return &Registry{state: state}
}

// Get returns the availability of a.
func (r *Registry) Get(a Action) Availability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[a]
}

// Allow fails without any network traffic when a is known to be unavailable.
func (r *Registry) Allow(a Action) error {
	if r.Get(a) == Unavailable {
		return domain.NewAppError(domain.CodeUnsupported, domain.ErrUnsupported.Message, nil)
	}
	return nil
}

// Observe records the outcome of a call to a. A 404 on an action of unknown
// availability marks it unavailable; a success marks it available. Other
// failures say nothing about support and are ignored.
func (r *Registry) Observe(a Action, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.state[a]
	switch {
	case err == nil:
		r.state[a] = Available
	case prev == Unknown && domain.RemoteStatus(err) == http.StatusNotFound:
		r.state[a] = Unavailable
	}
	if next := r.state[a]; next != prev {
		slog.Info("remote action availability changed",
			slog.String("action", string(a)),
			slog.String("from", prev.String()),
			slog.String("to", next.String()),
		)
	}
}

// Entry is one row of a registry listing.
type Entry struct {
	Action       Action `json:"action"`
	Availability string `json:"availability"`
}

// List returns every action and its availability, sorted by action.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.state))
	for a, v := range r.state {
		out = append(out, Entry{Action: a, Availability: v.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Action < out[j].Action })
	return out
}

// View is a read-only copy of the registry for templates.
type View map[Action]Availability

// Snapshot returns a copy of the current state.
func (r *Registry) Snapshot() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v := make(View, len(r.state))
	for a, s := range r.state {
		v[a] = s
	}
	return v
}

// Disabled reports whether the control for action should be disabled.
func (v View) Disabled(action string) bool {
	return v[Action(action)] == Unavailable
}

// Unconfirmed reports whether support for action has never been observed.
func (v View) Unconfirmed(action string) bool {
	return v[Action(action)] == Unknown
}
