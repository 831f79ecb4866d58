package reservation

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/ruelucas/internal/collection"
	"github.com/simp-lee/ruelucas/internal/domain"
	"github.com/simp-lee/ruelucas/internal/middleware"
	"github.com/simp-lee/ruelucas/internal/pkg"
)

// Handler serves the read-only JSON view of the reservations screen.
type Handler struct{}

// NewHandler creates a Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Screen handles GET /api/v1/reservations. Query parameters move the
// caller's screen exactly like the page filters do; without them the
// current state is returned, loading it first if it never was.
func (h *Handler) Screen(c *gin.Context) {
	s := middleware.GetSession(c)
	if s == nil {
		pkg.Error(c, domain.ErrInternal)
		return
	}

	q, moved := pkg.QueryFromRequest(c)
	if moved {
		s.Reservations.Update(func(st collection.State[domain.Reservation]) collection.State[domain.Reservation] {
			return st.WithQuery(q)
		})
	}

	st := s.Reservations.Snapshot()
	if moved || !st.Loaded {
		var err error
		st, err = s.Reservations.Load(c.Request.Context())
		switch {
		case domain.IsSuperseded(err):
			st = s.Reservations.Snapshot()
		case err != nil:
			pkg.Error(c, err)
			return
		}
	}
	pkg.Success(c, newScreenResponse(st))
}
