package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/ruelucas/internal/session"
)

const sessionContextKey = "session"

// DefaultSessionCookie is used when no cookie name is configured.
const DefaultSessionCookie = "ruelucas_session"

// Session attaches the caller's dashboard session to the request, creating
// one (and its cookie) when the cookie is missing or the session expired.
func Session(store *session.Store, cookieName string) gin.HandlerFunc {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	secure := gin.Mode() == gin.ReleaseMode

	return func(c *gin.Context) {
		id, _ := c.Cookie(cookieName)
		s, created := store.Acquire(id)
		if created {
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     cookieName,
				Value:    s.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(sessionContextKey, s)

		// Only a prefix is logged; the full id is a bearer credential.
		ctx := logger.WithContextAttrs(c.Request.Context(), slog.String("session", shortID(s.ID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetSession returns the session attached by Session, or nil.
func GetSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	s, _ := v.(*session.Session)
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
