package review

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/ruelucas/internal/collection"
	"github.com/simp-lee/ruelucas/internal/domain"
	"github.com/simp-lee/ruelucas/internal/middleware"
	"github.com/simp-lee/ruelucas/internal/pkg"
)

// Handler serves the read-only JSON view of the reviews screen.
type Handler struct {
	now func() time.Time
}

// NewHandler creates a Handler.
func NewHandler() *Handler {
	return &Handler{now: time.Now}
}

// Screen handles GET /api/v1/reviews.
func (h *Handler) Screen(c *gin.Context) {
	s := middleware.GetSession(c)
	if s == nil {
		pkg.Error(c, domain.ErrInternal)
		return
	}

	q, moved := pkg.QueryFromRequest(c)
	if moved {
		s.Reviews.Update(func(st collection.State[domain.Review]) collection.State[domain.Review] {
			return st.WithQuery(q)
		})
	}

	st := s.Reviews.Snapshot()
	if moved || !st.Loaded {
		var err error
		st, err = s.Reviews.Load(c.Request.Context())
		switch {
		case domain.IsSuperseded(err):
			st = s.Reviews.Snapshot()
		case err != nil:
			pkg.Error(c, err)
			return
		}
	}
	pkg.Success(c, newScreenResponse(st, h.now()))
}
