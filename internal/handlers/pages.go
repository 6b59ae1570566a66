package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Page renders a template with the shared layout data.
func Page(name, currentPage string) gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, http.StatusOK, name, currentPage, nil)
	}
}

func Home() gin.HandlerFunc {
	return Page("index", "home")
}

func AdminDashboard() gin.HandlerFunc {
	return Page("admin_dashboard", "admin")
}
