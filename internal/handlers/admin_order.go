package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type OrderUpdateRequest struct {
	Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
}

func GetOrders(orders repository.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/orders"
		defer handlePanic(c, route)

		list, err := orders.List(c.Request.Context())
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Failed to fetch orders")
			return
		}
		if list == nil {
			list = []models.Order{}
		}
		c.JSON(http.StatusOK, list)
	}
}

func GetOrder(orders repository.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/orders/:id"
		defer handlePanic(c, route)

		order, err := orders.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, repository.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "Order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Failed to fetch order")
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// UpdateOrder changes the status only; every other field is immutable.
func UpdateOrder(orders repository.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/orders/:id"
		defer handlePanic(c, route)

		var req OrderUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		status := models.OrderStatus(req.Status)
		if !status.Valid() {
			respondWithError(c, http.StatusBadRequest, route, "Invalid order status")
			return
		}

		order, err := orders.UpdateStatus(c.Request.Context(), c.Param("id"), status)
		if errors.Is(err, repository.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "Order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Failed to update order")
			return
		}

		log.Printf("[ADMIN] [INFO] order %s set to %s", order.ID, order.Status)
		c.JSON(http.StatusOK, gin.H{"message": "Order updated successfully", "data": order})
	}
}
