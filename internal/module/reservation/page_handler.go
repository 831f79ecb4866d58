package reservation

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/ruelucas/internal/capability"
	"github.com/simp-lee/ruelucas/internal/collection"
	"github.com/simp-lee/ruelucas/internal/display"
	"github.com/simp-lee/ruelucas/internal/domain"
	"github.com/simp-lee/ruelucas/internal/editor"
	"github.com/simp-lee/ruelucas/internal/middleware"
	"github.com/simp-lee/ruelucas/internal/pkg"
	"github.com/simp-lee/ruelucas/internal/session"
)

const (
	listTemplate  = "reservations/list.html"
	tableTemplate = "reservations/table.html"
	formTemplate  = "reservations/form.html"

	// ChangedEvent is triggered after a successful mutation; the table
	// listens for it and reloads.
	ChangedEvent = "reservations:changed"
)

// PageHandler serves the reservations screen and its htmx endpoints.
type PageHandler struct {
	svc      *Service
	caps     *capability.Registry
	debounce time.Duration
}

// NewPageHandler creates a PageHandler. debounce is the delay applied to the
// search box before a request is issued.
func NewPageHandler(svc *Service, caps *capability.Registry, debounce time.Duration) *PageHandler {
	return &PageHandler{svc: svc, caps: caps, debounce: debounce}
}

// ListPage renders the reservations screen, or only its table for htmx.
// GET /reservations
func (h *PageHandler) ListPage(c *gin.Context) {
	s, ok := sessionOf(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if q, ok := pkg.QueryFromRequest(c); ok {
		s.Reservations.Update(func(st collection.State[domain.Reservation]) collection.State[domain.Reservation] {
			return st.WithQuery(q)
		})
	}

	st, err := s.Reservations.Load(ctx)
	if domain.IsSuperseded(err) {
		if pkg.IsHTMX(c) {
			// A newer request owns the table.
			c.Status(http.StatusNoContent)
			return
		}
		st = s.Reservations.Snapshot()
	} else if err != nil {
		slog.WarnContext(ctx, "load reservations failed", slog.Any("error", err))
	}

	tmpl := listTemplate
	if pkg.IsHTMX(c) && c.GetHeader("HX-Boosted") != "true" {
		tmpl = tableTemplate
	}
	c.HTML(http.StatusOK, tmpl, gin.H{
		"State":     st,
		"Counts":    display.CountReservations(st.View),
		"Caps":      h.caps.Snapshot(),
		"Statuses":  display.ReservationOptions(),
		"LoadError": pkg.UserMessage(st.Err),
		"Debounce":  h.debounce.Milliseconds(),
		"Form":      formData(c, s.ReservationEditor.Snapshot()),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// NewForm opens the editor on a blank reservation.
// GET /reservations/new
func (h *PageHandler) NewForm(c *gin.Context) {
	s, ok := sessionOf(c)
	if !ok {
		return
	}
	if err := h.caps.Allow(capability.ReservationsCreate); err != nil {
		pkg.ToastOnly(c, pkg.UserMessage(err), pkg.ToastError)
		return
	}
	snap := s.ReservationEditor.OpenCreate(domain.DefaultReservationDraft())
	c.HTML(http.StatusOK, formTemplate, formData(c, snap))
}

// EditForm opens the editor seeded from a reservation of the current page.
// GET /reservations/:id/edit
func (h *PageHandler) EditForm(c *gin.Context) {
	s, ok := sessionOf(c)
	if !ok {
		return
	}
	if err := h.caps.Allow(capability.ReservationsUpdate); err != nil {
		pkg.ToastOnly(c, pkg.UserMessage(err), pkg.ToastError)
		return
	}

	id := c.Param("id")
	r, found := findByID(s.Reservations.Snapshot().View.Items, id)
	if !found {
		pkg.ToastOnly(c, "Réservation introuvable, veuillez recharger la liste", pkg.ToastError)
		return
	}
	snap := s.ReservationEditor.OpenEdit(id, domain.SeedReservationDraft(r))
	c.HTML(http.StatusOK, formTemplate, formData(c, snap))
}

// Submit validates the posted draft and saves it. The modal is closed on
// success; otherwise it is re-rendered with the draft and the errors.
// POST /reservations, PUT /reservations/:id
func (h *PageHandler) Submit(c *gin.Context) {
	s, ok := sessionOf(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	ed := s.ReservationEditor

	var d domain.ReservationDraft
	bindErr := c.ShouldBind(&d)

	// The editor may have been lost to a session expiry; the posted form
	// carries everything needed to reopen it.
	if snap := ed.Snapshot(); !snap.IsOpen() || snap.ID != id {
		ed.OpenEdit(id, d)
	}
	if err := ed.SetDraft(d); err != nil {
		pkg.ToastOnly(c, pkg.UserMessage(err), pkg.ToastInfo)
		return
	}
	if bindErr != nil {
		slog.DebugContext(ctx, "reservation form: bind error", slog.Any("error", bindErr))
		data := formData(c, ed.Snapshot())
		data["Error"] = "Veuillez vérifier le format des champs"
		c.HTML(http.StatusOK, formTemplate, data)
		return
	}

	snap, err := ed.Submit(ctx, h.svc.Save)
	switch {
	case err == nil:
		msg := "Réservation mise à jour"
		if id == "" {
			msg = "Réservation créée"
		}
		pkg.Toast(c, msg, pkg.ToastSuccess, ChangedEvent)
	case errors.Is(err, editor.ErrBusy):
		pkg.ToastOnly(c, pkg.UserMessage(err), pkg.ToastInfo)
		return
	case domain.IsValidation(err):
		// fields are rendered inline
	case domain.IsUnsupported(err):
		slog.WarnContext(ctx, "save reservation not supported", slog.String("id", id), slog.Any("error", err))
		pkg.Toast(c, pkg.UserMessage(err), pkg.ToastError, ChangedEvent)
	default:
		slog.WarnContext(ctx, "save reservation failed", slog.String("id", id), slog.Any("error", err))
		pkg.Toast(c, pkg.UserMessage(err), pkg.ToastError)
	}
	c.HTML(http.StatusOK, formTemplate, formData(c, snap))
}

// Delete removes a reservation. The table reloads on success.
// DELETE /reservations/:id
func (h *PageHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	err := h.svc.Delete(ctx, id)
	switch {
	case err == nil:
		pkg.ToastOnly(c, "Réservation supprimée", pkg.ToastSuccess, ChangedEvent)
	case domain.IsUnsupported(err):
		// Reload so the now disabled controls are shown as such.
		slog.WarnContext(ctx, "delete reservation not supported", slog.String("id", id), slog.Any("error", err))
		pkg.ToastOnly(c, "Suppression non prise en charge par l'API", pkg.ToastError, ChangedEvent)
	default:
		slog.WarnContext(ctx, "delete reservation failed", slog.String("id", id), slog.Any("error", err))
		pkg.ToastOnly(c, pkg.UserMessage(err), pkg.ToastError)
	}
}

// CloseEditor discards the open draft.
// POST /reservations/editor/close
func (h *PageHandler) CloseEditor(c *gin.Context) {
	s, ok := sessionOf(c)
	if !ok {
		return
	}
	s.ReservationEditor.Close()
	c.HTML(http.StatusOK, formTemplate, formData(c, s.ReservationEditor.Snapshot()))
}

func formData(c *gin.Context, snap editor.Snapshot[domain.ReservationDraft]) gin.H {
	title, action := "Nouvelle réservation", "/reservations"
	if !snap.Creating() {
		title, action = "Modifier la réservation", "/reservations/"+url.PathEscape(snap.ID)
	}
	msg := ""
	if snap.Err != nil && !domain.IsValidation(snap.Err) {
		msg = pkg.UserMessage(snap.Err)
	}
	return gin.H{
		"Editor":    snap,
		"Draft":     snap.Draft,
		"Fields":    snap.Fields,
		"Title":     title,
		"Action":    action,
		"Statuses":  display.ReservationOptions(),
		"Saving":    snap.Phase == editor.Submitting,
		"Error":     msg,
		"CSRFToken": middleware.GetCSRFToken(c),
	}
}

func findByID(items []domain.Reservation, id string) (domain.Reservation, bool) {
	for _, r := range items {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Reservation{}, false
}

func sessionOf(c *gin.Context) (*session.Session, bool) {
	s := middleware.GetSession(c)
	if s == nil {
		slog.ErrorContext(c.Request.Context(), "no session attached to request", slog.String("path", c.FullPath()))
		c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
		return nil, false
	}
	return s, true
}
