package repository

import (
	"context"
	"errors"

	"storefront/internal/models"
)

// ErrNotFound is returned when the requested document does not exist.
var ErrNotFound = errors.New("not found")

// Users persists application user rows keyed by provider id.
type Users interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	// Upsert inserts or overwrites the row with u.ID; CreatedAt survives overwrites.
	Upsert(ctx context.Context, u models.User) (*models.User, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type Products interface {
	List(ctx context.Context) ([]models.Product, error)
	ListActive(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, p models.Product) (*models.Product, error)
	Update(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type Orders interface {
	List(ctx context.Context) ([]models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	Count(ctx context.Context) (int64, error)
	Revenue(ctx context.Context) (float64, error)
}
