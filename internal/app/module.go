package app

import "github.com/gin-gonic/gin"

// Module is one section of the dashboard. api is mounted at /api/v1 with the
// operator session attached; pages additionally require a CSRF token on
// unsafe methods.
type Module interface {
	RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup)
}
