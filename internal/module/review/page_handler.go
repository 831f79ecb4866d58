package review

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
	listTemplate  = "reviews/list.html"
	tableTemplate = "reviews/table.html"
	formTemplate  = "reviews/form.html"

	// ChangedEvent is triggered after a successful mutation.
	ChangedEvent = "reviews:changed"
)

// PageHandler serves the reviews screen and its htmx endpoints.
type PageHandler struct {
	svc      *Service
	caps     *capability.Registry
	debounce time.Duration
	now      func() time.Time
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(svc *Service, caps *capability.Registry, debounce time.Duration) *PageHandler {
	return &PageHandler{svc: svc, caps: caps, debounce: debounce, now: time.Now}
}

// ListPage renders the reviews screen with its statistics, or only the
// table and statistics for htmx.
// GET /reviews
func (h *PageHandler) ListPage(c *gin.Context) {
	s, ok := sessionOf(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if q, ok := pkg.QueryFromRequest(c); ok {
		s.Reviews.Update(func(st collection.State[domain.Review]) collection.State[domain.Review] {
			return st.WithQuery(q)
		})
	}

	st, err := s.Reviews.Load(ctx)
	if domain.IsSuperseded(err) {
		if pkg.IsHTMX(c) {
			c.Status(http.StatusNoContent)
			return
		}
		st = s.Reviews.Snapshot()
	} else if err != nil {
		slog.WarnContext(ctx, "load reviews failed", slog.Any("error", err))
	}

	tmpl := listTemplate
	if pkg.IsHTMX(c) && c.GetHeader("HX-Boosted") != "true" {
		tmpl = tableTemplate
	}
	c.HTML(http.StatusOK, tmpl, gin.H{
		"State":     st,
		"Stats":     display.SummarizeReviews(st.View.Items, st.View.Total, h.now()),
		"Caps":      h.caps.Snapshot(),
		"Statuses":  display.ReviewOptions(),
		"LoadError": pkg.UserMessage(st.Err),
		"Debounce":  h.debounce.Milliseconds(),
		"Form":      formData(c, s.ReviewEditor.Snapshot()),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// NewForm opens the editor on a blank review rated 5.
// GET /reviews/new
func (h *PageHandler) NewForm(c *gin.Context) {
	s, ok := sessionOf(c)
	if !ok {
		return
	}
	if err := h.caps.Allow(capability.ReviewsCreate); err != nil {
		pkg.ToastOnly(c, pkg.UserMessage(err), pkg.ToastError)
		return
	}
	snap := s.ReviewEditor.OpenCreate(domain.DefaultReviewDraft())
	c.HTML(http.StatusOK, formTemplate, formData(c, snap))
}

// EditForm opens the editor seeded from a review of the current page.
// GET /reviews/:id/edit
func (h *PageHandler) EditForm(c *gin.Context) {
	s, ok := sessionOf(c)
	if !ok {
		return
	}
	if err := h.caps.Allow(capability.ReviewsUpdate); err != nil {
		pkg.ToastOnly(c, pkg.UserMessage(err), pkg.ToastError)
		return
	}

	id := c.Param("id")
	r, found := findByID(s.Reviews.Snapshot().View.Items, id)
	if !found {
		pkg.ToastOnly(c, "Avis introuvable, veuillez recharger la liste", pkg.ToastError)
		return
	}
	snap := s.ReviewEditor.OpenEdit(id, domain.SeedReviewDraft(r))
	c.HTML(http.StatusOK, formTemplate, formData(c, snap))
}

// Submit validates the posted draft and saves it.
// POST /reviews, PUT /reviews/:id
func (h *PageHandler) Submit(c *gin.Context) {
	s, ok := sessionOf(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	ed := s.ReviewEditor

	var d domain.ReviewDraft
	bindErr := c.ShouldBind(&d)

	if snap := ed.Snapshot(); !snap.IsOpen() || snap.ID != id {
		ed.OpenEdit(id, d)
	}
	if err := ed.SetDraft(d); err != nil {
		pkg.ToastOnly(c, pkg.UserMessage(err), pkg.ToastInfo)
		return
	}
	if bindErr != nil {
		slog.DebugContext(ctx, "review form: bind error", slog.Any("error", bindErr))
		data := formData(c, ed.Snapshot())
		data["Error"] = "Veuillez vérifier le format des champs"
		c.HTML(http.StatusOK, formTemplate, data)
		return
	}

	snap, err := ed.Submit(ctx, h.svc.Save)
	switch {
	case err == nil:
		msg := "Avis mis à jour"
		if id == "" {
			msg = "Avis créé"
		}
		pkg.Toast(c, msg, pkg.ToastSuccess, ChangedEvent)
	case errors.Is(err, editor.ErrBusy):
		pkg.ToastOnly(c, pkg.UserMessage(err), pkg.ToastInfo)
		return
	case domain.IsValidation(err):
	case domain.IsUnsupported(err):
		slog.WarnContext(ctx, "save review not supported", slog.String("id", id), slog.Any("error", err))
		pkg.Toast(c, pkg.UserMessage(err), pkg.ToastError, ChangedEvent)
	default:
		slog.WarnContext(ctx, "save review failed", slog.String("id", id), slog.Any("error", err))
		pkg.Toast(c, pkg.UserMessage(err), pkg.ToastError)
	}
	c.HTML(http.StatusOK, formTemplate, formData(c, snap))
}

// Delete removes a review.
// DELETE /reviews/:id
func (h *PageHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	err := h.svc.Delete(ctx, id)
	switch {
	case err == nil:
		pkg.ToastOnly(c, "Avis supprimé", pkg.ToastSuccess, ChangedEvent)
	case domain.IsUnsupported(err):
		slog.WarnContext(ctx, "delete review not supported", slog.String("id", id), slog.Any("error", err))
		pkg.ToastOnly(c, "Suppression non prise en charge par l'API", pkg.ToastError, ChangedEvent)
	default:
		slog.WarnContext(ctx, "delete review failed", slog.String("id", id), slog.Any("error", err))
		pkg.ToastOnly(c, pkg.UserMessage(err), pkg.ToastError)
	}
}

// CloseEditor discards the open draft.
// POST /reviews/editor/close
func (h *PageHandler) CloseEditor(c *gin.Context) {
	s, ok := sessionOf(c)
	if !ok {
		return
	}
	s.ReviewEditor.Close()
	c.HTML(http.StatusOK, formTemplate, formData(c, s.ReviewEditor.Snapshot()))
}

func formData(c *gin.Context, snap editor.Snapshot[domain.ReviewDraft]) gin.H {
	title, action := "Nouvel avis", "/reviews"
	if !snap.Creating() {
		title, action = "Modifier l'avis", "/reviews/"+url.PathEscape(snap.ID)
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
		"Statuses":  display.ReviewOptions(),
		"Ratings":   []int{5, 4, 3, 2, 1},
		"Saving":    snap.Phase == editor.Submitting,
		"Error":     msg,
		"CSRFToken": middleware.GetCSRFToken(c),
	}
}

func findByID(items []domain.Review, id string) (domain.Review, bool) {
	for _, r := range items {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Review{}, false
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
