package pkg

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Toast kinds understood by the toast partial.
const (
	ToastSuccess = "success"
	ToastError   = "error"
	ToastInfo    = "info"
)

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// Toast sets the HX-Trigger response header with a showToast event. Extra
// events are triggered alongside it.
func Toast(c *gin.Context, message, kind string, events ...string) {
	payload := map[string]any{
		"showToast": map[string]string{
			"message": message,
			"type":    kind,
		},
	}
	for _, e := range events {
		payload[e] = true
	}
	trigger, _ := json.Marshal(payload)
	c.Header("HX-Trigger", string(trigger))
}

// NoSwap tells htmx to leave the page untouched.
func NoSwap(c *gin.Context) {
	c.Header("HX-Reswap", "none")
}

// ToastOnly answers with a toast and nothing to swap.
func ToastOnly(c *gin.Context, message, kind string, events ...string) {
	NoSwap(c)
	Toast(c, message, kind, events...)
	c.Status(http.StatusOK)
}
