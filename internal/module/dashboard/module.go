package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/ruelucas/internal/capability"
	"github.com/simp-lee/ruelucas/internal/middleware"
	"github.com/simp-lee/ruelucas/internal/pkg"
)

// Section is one navigation card of the home page.
type Section struct {
	Title       string
	Description string
	Href        string
}

var sections = []Section{
	{Title: "Réservations", Description: "Gérer les réservations de l'hôtel", Href: "/reservations"},
	{Title: "Avis clients", Description: "Modérer les avis des clients", Href: "/reviews"},
}

// Module serves the dashboard home and the capability overview.
type Module struct {
	caps *capability.Registry
}

// NewModule creates a Module. Panics if caps is nil.
func NewModule(caps *capability.Registry) *Module {
	if caps == nil {
		panic("dashboard.NewModule: capability registry must not be nil")
	}
	return &Module{caps: caps}
}

// RegisterRoutes registers the home page and GET /api/v1/capabilities.
func (m *Module) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/capabilities", m.Capabilities)
	pages.GET("/", m.Home)
}

// Home renders the navigation cards and what is known of the remote API.
// GET /
func (m *Module) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", gin.H{
		"Sections":     sections,
		"Capabilities": m.caps.List(),
		"CSRFToken":    middleware.GetCSRFToken(c),
	})
}

// Capabilities handles GET /api/v1/capabilities.
func (m *Module) Capabilities(c *gin.Context) {
	pkg.Success(c, m.caps.List())
}
