/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients

NOTES:
  Prices cross the wire as JSON numbers for display; internally they stay
  decimal.Decimal. Pointer fields on request types distinguish "absent"
  from "zero value" - the purchase update handler relies on this to detect
  attempts to rewrite frozen fields.

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"time"

	"github.com/storefront/purchase-engine/catalog"
	"github.com/storefront/purchase-engine/purchase"
	"github.com/storefront/purchase-engine/qrcode"
)

// =============================================================================
// PRODUCT TYPES
// =============================================================================

// ProductDTO represents a catalog product in API responses.
type ProductDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// CreateProductRequest is the request to create a product.
type CreateProductRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       *float64 `json:"price"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
}

// UpdateProductRequest is a partial product update. Catalog prices are
// mutable; already-recorded purchases keep their snapshot.
type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"image_url"`
}

// ProductPageDTO is one page of products.
type ProductPageDTO struct {
	Products []ProductDTO `json:"products"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Total    int          `json:"total"`
}

// =============================================================================
// PURCHASE TYPES
// =============================================================================

// PurchaseDTO represents a purchase in API responses.
type PurchaseDTO struct {
	ID            int64   `json:"id"`
	TransactionID string  `json:"transaction_id"`
	ProductID     string  `json:"product_id"`
	Price         float64 `json:"price"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// CreatePurchaseRequest is the request to record a purchase. Price is
// present only so the handler can reject callers trying to supply one.
type CreatePurchaseRequest struct {
	ProductID string   `json:"product_id"`
	Price     *float64 `json:"price"`
}

// UpdatePurchaseRequest is the generic CRUD patch for a purchase. Price
// and TransactionID are decoded so the ledger can refuse them explicitly
// instead of silently dropping them.
type UpdatePurchaseRequest struct {
	ProductID     *string  `json:"product_id"`
	Price         *float64 `json:"price"`
	TransactionID *string  `json:"transaction_id"`
}

// PurchasePageDTO is one page of purchases, newest first.
type PurchasePageDTO struct {
	Purchases []PurchaseDTO `json:"purchases"`
	Page      int           `json:"page"`
	PageSize  int           `json:"page_size"`
	Total     int           `json:"total"`
}

// QRCodeDTO carries a resolved scannable code. QRCodeURL is a PNG data
// URI the client uses directly as an image source.
type QRCodeDTO struct {
	TransactionID string `json:"transaction_id"`
	URL           string `json:"url"`
	QRCodeURL     string `json:"qr_code_url"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toProductDTO(p *catalog.Product) ProductDTO {
	price, _ := p.Price.Float64()
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Price:       price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

func toPurchaseDTO(p *purchase.Purchase) PurchaseDTO {
	price, _ := p.Price.Float64()
	return PurchaseDTO{
		ID:            p.ID,
		TransactionID: string(p.TransactionID),
		ProductID:     p.ProductID,
		Price:         price,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
	}
}

func toQRCodeDTO(c *qrcode.Code) QRCodeDTO {
	return QRCodeDTO{
		TransactionID: string(c.TransactionID),
		URL:           c.URL,
		QRCodeURL:     c.DataURI,
	}
}
