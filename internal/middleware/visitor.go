// Package middleware provides gin middleware for the web layer.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Visitor cookie parameters. The id is an opaque, unauthenticated token
// used solely to scope like membership.
const (
	// VisitorCookieName is the cookie holding the visitor id.
	VisitorCookieName = "visitor_id"
	// VisitorContextKey is the gin context key the id is stored under.
	VisitorContextKey = "visitor_id"
	// visitorCookieMaxAge is one year in seconds.
	visitorCookieMaxAge = 365 * 24 * 60 * 60
)

// Visitor ensures every request carries a visitor id. A new visitor is
// assigned a fresh random id and receives it back as a cookie.
func Visitor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(VisitorCookieName)
		if err != nil || id == "" {
			id = uuid.New().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(VisitorCookieName, id, visitorCookieMaxAge, "/", "", false, true)
		}

		c.Set(VisitorContextKey, id)
		c.Next()
	}
}

// VisitorID returns the visitor id stored by the Visitor middleware.
func VisitorID(c *gin.Context) string {
	id, _ := c.Get(VisitorContextKey)
	if s, ok := id.(string); ok {
		return s
	}
	return ""
}
