package review

import "github.com/gin-gonic/gin"

// Module implements the app.Module interface for the reviews screen.
type Module struct {
	handler     *Handler
	pageHandler *PageHandler
}

// NewModule creates a Module. Panics if h or ph is nil.
func NewModule(h *Handler, ph *PageHandler) *Module {
	if h == nil || ph == nil {
		panic("review.NewModule: handlers must not be nil")
	}
	return &Module{handler: h, pageHandler: ph}
}

// RegisterRoutes registers review API and page routes.
func (m *Module) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/reviews", m.handler.Screen)

	pages.GET("/reviews", m.pageHandler.ListPage)
	pages.GET("/reviews/new", m.pageHandler.NewForm)
	pages.GET("/reviews/:id/edit", m.pageHandler.EditForm)
	pages.POST("/reviews", m.pageHandler.Submit)
	pages.POST("/reviews/editor/close", m.pageHandler.CloseEditor)
	pages.PUT("/reviews/:id", m.pageHandler.Submit)
	pages.DELETE("/reviews/:id", m.pageHandler.Delete)
}
