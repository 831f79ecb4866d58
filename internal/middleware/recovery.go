package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/ruelucas/internal/pkg"
)

// Recovery returns a gin middleware that recovers from panics, logs the value
// with its stack trace, and answers in the shape the client expects:
//   - htmx requests get an error toast and no swap
//   - HTML requests get the errors/500.html page
//   - everything else gets the JSON envelope {"code":500,"message":"internal server error","data":null}
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			logger.ErrorContext(c.Request.Context(), "panic recovered",
				slog.Any("panic", err),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("stack", string(debug.Stack())),
			)

			c.Abort()
			switch {
			case pkg.IsHTMX(c):
				pkg.NoSwap(c)
				pkg.Toast(c, "Erreur interne, veuillez réessayer", pkg.ToastError)
				c.Status(http.StatusInternalServerError)
			case strings.Contains(strings.ToLower(c.GetHeader("Accept")), "text/html"):
				renderHTMLError(c)
			default:
				c.JSON(http.StatusInternalServerError, pkg.Response{
					Code:    http.StatusInternalServerError,
					Message: "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// renderHTMLError renders errors/500.html, or plain text when no renderer is
// configured or rendering fails.
func renderHTMLError(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("500 Internal Server Error"))
		}
	}()
	c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
}
