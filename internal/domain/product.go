package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog
type Product struct {
	ID          uuid.UUID `json:"_id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Quantity    int       `json:"quantity" db:"quantity"`
	CategoryID  uuid.UUID `json:"category_id" db:"category_id"`
	Category    *Category `json:"category" db:"-"`
	Shipping    bool      `json:"shipping" db:"shipping"`
	Photo       *PhotoRef `json:"-" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Category represents a product category
type Category struct {
	ID        uuid.UUID `json:"_id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PriceRange is an inclusive price interval
type PriceRange struct {
	Min float64
	Max float64
}

// ProductFilter narrows the catalog. Empty fields do not constrain the result.
type ProductFilter struct {
	CategoryIDs []uuid.UUID
	Price       *PriceRange
}
