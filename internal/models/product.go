package models

import "time"

type Product struct {
	ID          string     `bson:"_id" json:"id"`
	Name        string     `bson:"name" json:"name"`
	Description *string    `bson:"description" json:"description"`
	Price       float64    `bson:"price" json:"price"`
	Stock       int        `bson:"stock" json:"stock"`
	IsActive    bool       `bson:"isActive" json:"is_active"`
	Image       *string    `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"created_at"`
	UpdatedAt   *time.Time `bson:"updatedAt,omitempty" json:"updated_at,omitempty"`
}

// ProductUpdate is a partial update; nil fields are left as stored.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	IsActive    *bool
}

func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil && u.Stock == nil && u.IsActive == nil
}
