/*
Package catalog holds the product catalog the storefront sells from.

The purchase core treats the catalog as a read-only collaborator: it looks
a product up, copies its current price into the purchase record, and never
writes back. Product prices are mutable at any time by the catalog owner;
already-recorded purchases keep their snapshot.
*/
package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Description string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reader is the catalog interface the purchase core consumes.
// GetProduct returns (nil, nil) when the product does not exist.
type Reader interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
}

// Store is the full catalog persistence interface used by the CRUD layer.
type Store interface {
	Reader

	// SaveProduct inserts or updates a product.
	SaveProduct(ctx context.Context, p *Product) error

	// ListProducts returns one page of products, newest first, plus the
	// total count.
	ListProducts(ctx context.Context, page, pageSize int) ([]Product, int, error)

	// DeleteProduct removes a product. Purchases referencing it keep
	// their price snapshot.
	DeleteProduct(ctx context.Context, id string) error
}
