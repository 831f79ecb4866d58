package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/simp-lee/ginx"
)

// CORS adapts the ginx CORS middleware to a gin handler for the JSON API
// group. Preflights from unlisted origins are refused with 403; other
// requests from them pass without CORS headers.
func CORS(opts ...ginx.Option[ginx.CORSConfig]) gin.HandlerFunc {
	return ginx.NewChain().Use(ginx.CORS(opts...)).Build()
}
