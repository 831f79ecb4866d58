package reservation

import "github.com/gin-gonic/gin"

// Module implements the app.Module interface for the reservations screen.
type Module struct {
	handler     *Handler
	pageHandler *PageHandler
}

// NewModule creates a Module with the given handlers.
// Panics if h or ph is nil.
func NewModule(h *Handler, ph *PageHandler) *Module {
	if h == nil {
		panic("reservation.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("reservation.NewModule: pageHandler must not be nil")
	}
	return &Module{handler: h, pageHandler: ph}
}

// RegisterRoutes registers reservation API and page routes.
func (m *Module) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/reservations", m.handler.Screen)

	pages.GET("/reservations", m.pageHandler.ListPage)
	pages.GET("/reservations/new", m.pageHandler.NewForm)
	pages.GET("/reservations/:id/edit", m.pageHandler.EditForm)
	pages.POST("/reservations", m.pageHandler.Submit)
	pages.POST("/reservations/editor/close", m.pageHandler.CloseEditor)
	pages.PUT("/reservations/:id", m.pageHandler.Submit)
	pages.DELETE("/reservations/:id", m.pageHandler.Delete)
}
