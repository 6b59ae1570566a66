package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/repository"
)

// GetProducts lists active products, newest first. Store failures degrade to
// an empty list so the storefront still renders.
func GetProducts(products repository.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		list, err := products.ListActive(c.Request.Context())
		if err != nil {
			log.Printf("[%s] list failed: %v", route, err)
			c.JSON(http.StatusOK, []models.Product{})
			return
		}
		if list == nil {
			list = []models.Product{}
		}

		log.Printf("[%s] returning %d products", route, len(list))
		c.JSON(http.StatusOK, list)
	}
}

func GetProduct(products repository.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		product, err := products.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Error fetching product")
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
