package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type ProductCreateRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"required,gt=0"`
	Stock       *int     `json:"stock" binding:"omitempty,min=0"`
	IsActive    *bool    `json:"is_active"`
}

type ProductUpdateRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0"`
	Stock       *int     `json:"stock" binding:"omitempty,min=0"`
	IsActive    *bool    `json:"is_active"`
}

func GetAllProducts(products repository.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/products"
		defer handlePanic(c, route)

		list, err := products.List(c.Request.Context())
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Failed to fetch products")
			return
		}
		if list == nil {
			list = []models.Product{}
		}
		c.JSON(http.StatusOK, list)
	}
}

func GetAdminProduct(products repository.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/products/:id"
		defer handlePanic(c, route)

		product, err := products.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, repository.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Failed to fetch product")
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func CreateProduct(products repository.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/products"
		defer handlePanic(c, route)

		var req ProductCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if strings.TrimSpace(req.Name) == "" || req.Price == nil || *req.Price == 0 {
				respondWithError(c, http.StatusBadRequest, route, "Name and price are required")
				return
			}
			respondValidationError(c, err)
			return
		}

		product := models.Product{
			ID:          uuid.NewString(),
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
			Price:       *req.Price,
			IsActive:    true,
		}
		if req.Stock != nil {
			product.Stock = *req.Stock
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}

		created, err := products.Create(c.Request.Context(), product)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Failed to create product")
			return
		}

		log.Printf("[PRODUCT] [INFO] product %s created", created.ID)
		c.JSON(http.StatusOK, gin.H{"message": "Product created successfully", "data": created})
	}
}

func UpdateProduct(products repository.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/products/:id"
		defer handlePanic(c, route)

		var req ProductUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		upd := models.ProductUpdate{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Stock:       req.Stock,
			IsActive:    req.IsActive,
		}
		if upd.Empty() {
			respondWithError(c, http.StatusBadRequest, route, "No fields to update")
			return
		}

		updated, err := products.Update(c.Request.Context(), c.Param("id"), upd)
		if errors.Is(err, repository.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Failed to update product")
			return
		}

		log.Printf("[PRODUCT] [INFO] product %s updated", updated.ID)
		c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "data": updated})
	}
}

func DeleteProduct(products repository.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/admin/products/:id"
		defer handlePanic(c, route)

		id := c.Param("id")
		err := products.Delete(c.Request.Context(), id)
		if errors.Is(err, repository.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Failed to delete product")
			return
		}

		log.Printf("[PRODUCT] [INFO] product %s deleted", id)
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
