package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/session"
)

// AdminGuard protects the admin JSON API. It trusts the IsAdmin flag set on
// the session at login and does not call the provider.
func AdminGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := session.CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		if !user.IsAdmin {
			log.Printf("[ADMIN] [WARN] non-admin %s denied %s", user.ID, c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin privileges required"})
			return
		}
		c.Next()
	}
}

// AdminPageGuard is the HTML variant: anonymous visitors go to the login
// page, signed-in non-admins get the home page with an error.
func AdminPageGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := session.CurrentUser(c)
		if user == nil {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		if !user.IsAdmin {
			c.HTML(http.StatusForbidden, "index", gin.H{
				"user":        user,
				"currentPage": "home",
				"error":       "Access denied. Admin privileges required.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
