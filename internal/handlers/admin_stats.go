package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type AdminDeps struct {
	Users    repository.Users
	Products repository.Products
	Orders   repository.Orders
}

// GetStats runs the dashboard counters concurrently.
func GetStats(deps AdminDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/stats"
		defer handlePanic(c, route)

		var (
			stats   models.Stats
			revenue float64
		)
		g, ctx := errgroup.WithContext(c.Request.Context())
		g.Go(func() (err error) {
			stats.TotalUsers, err = deps.Users.Count(ctx)
			return err
		})
		g.Go(func() (err error) {
			stats.TotalProducts, err = deps.Products.Count(ctx)
			return err
		})
		g.Go(func() (err error) {
			stats.ActiveProducts, err = deps.Products.CountActive(ctx)
			return err
		})
		g.Go(func() (err error) {
			stats.TotalOrders, err = deps.Orders.Count(ctx)
			return err
		})
		g.Go(func() (err error) {
			revenue, err = deps.Orders.Revenue(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Failed to fetch stats")
			return
		}

		stats.TotalRevenue = models.FormatRevenue(revenue)
		c.JSON(http.StatusOK, stats)
	}
}
