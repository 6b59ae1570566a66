package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/session"
)

type UserUpdateRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Role    *string `json:"role" binding:"omitempty,oneof=user admin"`
}

func GetUsers(users repository.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/users"
		defer handlePanic(c, route)

		list, err := users.List(c.Request.Context())
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Failed to fetch users")
			return
		}
		if list == nil {
			list = []models.User{}
		}
		c.JSON(http.StatusOK, list)
	}
}

func GetUser(users repository.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/users/:id"
		defer handlePanic(c, route)

		user, err := users.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, repository.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "User not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Failed to fetch user")
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func UpdateUser(users repository.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/users/:id"
		defer handlePanic(c, route)

		var req UserUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		upd := models.UserUpdate{
			Name:    req.Name,
			Email:   req.Email,
			Address: req.Address,
			Role:    req.Role,
		}
		if req.Phone != nil {
			phone, ok := models.NormalizePhone(*req.Phone)
			if !ok {
				respondWithError(c, http.StatusBadRequest, route, "Invalid phone number")
				return
			}
			upd.Phone = phone
		}

		user, err := users.Update(c.Request.Context(), c.Param("id"), upd)
		if errors.Is(err, repository.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "User not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Failed to update user")
			return
		}

		log.Printf("[ADMIN] [INFO] user %s updated", user.ID)
		c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "data": user})
	}
}

// DeleteUser refuses to remove the acting admin's own record.
func DeleteUser(users repository.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/admin/users/:id"
		defer handlePanic(c, route)

		id := c.Param("id")
		if current := session.CurrentUser(c); current != nil && current.ID == id {
			respondWithError(c, http.StatusBadRequest, route, "Cannot delete your own account")
			return
		}

		err := users.Delete(c.Request.Context(), id)
		if errors.Is(err, repository.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "User not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Failed to delete user")
			return
		}

		log.Printf("[ADMIN] [INFO] user %s deleted", id)
		c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
	}
}
