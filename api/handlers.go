/*
handlers.go - HTTP API handlers for the storefront

PURPOSE:
  Exposes the catalog and the purchase pipeline via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain
  logic.

ENDPOINTS:
  Products:
    GET    /api/products                      List products (paginated)
    POST   /api/products                      Create product
    GET    /api/products/{id}                 Get product
    PATCH  /api/products/{id}                 Partial update (incl. price)
    DELETE /api/products/{id}                 Delete product

  Purchases:
    GET    /api/purchases                     List purchases, newest first
    POST   /api/purchases                     Record a purchase of {product_id}
    GET    /api/purchases/{id}                Resolve by TRANSACTION id
    PATCH  /api/purchases/{id}                Generic update (numeric id)
    DELETE /api/purchases/{id}                Generic delete (numeric id)
    GET    /api/purchases/{id}/qrcode         Scannable code (transaction id)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (service, ledger, resolver)
  4. Serialize response
  5. Map errors

ERROR HANDLING:
  - 400: malformed JSON body
  - 404: unknown product or transaction id
  - 409: transaction id conflict (after retries; practically unreachable)
  - 422: validation failures, attempts to rewrite frozen fields
  - 500: storage failures, reported without internals

SEE ALSO:
  - dto.go: request/response data structures
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/storefront/purchase-engine/catalog"
	"github.com/storefront/purchase-engine/purchase"
	"github.com/storefront/purchase-engine/qrcode"
	"github.com/storefront/purchase-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Ledger   *purchase.Ledger
	Service  *purchase.Service
	Resolver *qrcode.Resolver
}

// NewHandler wires the purchase pipeline over the given store.
// publicBaseURL is the origin embedded in scannable codes.
func NewHandler(store *sqlite.Store, publicBaseURL string) *Handler {
	ledger := purchase.NewLedger(store)
	return &Handler{
		Store:    store,
		Ledger:   ledger,
		Service:  purchase.NewService(store, ledger),
		Resolver: qrcode.NewResolver(ledger, qrcode.PNG{}, qrcode.Options{PublicBaseURL: publicBaseURL}),
	}
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns one page of products.
// GET /api/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePaging(r)

	products, total, err := h.Store.ListProducts(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", nil)
		return
	}

	dtos := make([]ProductDTO, len(products))
	for i := range products {
		dtos[i] = toProductDTO(&products[i])
	}

	writeJSON(w, http.StatusOK, ProductPageDTO{
		Products: dtos,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}

// CreateProduct creates a catalog product.
// POST /api/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.ID == "" {
		writeError(w, http.StatusUnprocessableEntity, "id is required", nil)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required", nil)
		return
	}
	if req.Price == nil || *req.Price < 0 {
		writeError(w, http.StatusUnprocessableEntity, "price is required and must not be negative", nil)
		return
	}

	product := &catalog.Product{
		ID:          req.ID,
		Name:        req.Name,
		Price:       decimal.NewFromFloat(*req.Price),
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}

	if err := h.Store.SaveProduct(r.Context(), product); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create product", nil)
		return
	}

	saved, err := h.Store.GetProduct(r.Context(), product.ID)
	if err != nil || saved == nil {
		writeError(w, http.StatusInternalServerError, "Failed to create product", nil)
		return
	}

	writeJSON(w, http.StatusCreated, toProductDTO(saved))
}

// GetProduct returns a single product.
// GET /api/products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.Store.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get product", nil)
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toProductDTO(product))
}

// UpdateProduct applies a partial update. Changing the price here never
// touches already-recorded purchases.
// PATCH /api/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	product, err := h.Store.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get product", nil)
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Price != nil {
		if *req.Price < 0 {
			writeError(w, http.StatusUnprocessableEntity, "price must not be negative", nil)
			return
		}
		product.Price = decimal.NewFromFloat(*req.Price)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}

	if err := h.Store.SaveProduct(r.Context(), product); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update product", nil)
		return
	}

	writeJSON(w, http.StatusOK, toProductDTO(product))
}

// DeleteProduct removes a product. Existing purchases keep their snapshot.
// DELETE /api/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete product", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PURCHASE HANDLERS
// =============================================================================

// ListPurchases returns one page of purchases, newest first.
// GET /api/purchases
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePaging(r)

	result, err := h.Ledger.List(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list purchases", nil)
		return
	}

	dtos := make([]PurchaseDTO, len(result.Items))
	for i := range result.Items {
		dtos[i] = toPurchaseDTO(&result.Items[i])
	}

	writeJSON(w, http.StatusOK, PurchasePageDTO{
		Purchases: dtos,
		Page:      result.Page,
		PageSize:  result.PageSize,
		Total:     result.Total,
	})
}

// CreatePurchase records the sale of one product. The price is always
// snapshotted from the catalog; a caller-supplied price is rejected, not
// ignored, so the trust boundary is visible.
// POST /api/purchases
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Price != nil {
		writeError(w, http.StatusUnprocessableEntity, "price is derived from the catalog and must not be supplied", nil)
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusUnprocessableEntity, "product_id is required", nil)
		return
	}

	p, err := h.Service.Purchase(r.Context(), req.ProductID)
	if err != nil {
		writeDomainError(w, err, "Failed to record purchase")
		return
	}

	writeJSON(w, http.StatusCreated, toPurchaseDTO(p))
}

// GetPurchase resolves a purchase by its TRANSACTION id - the external
// key printed on receipts and embedded in scanned codes.
// GET /api/purchases/{id}
func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	txid := purchase.TransactionID(chi.URLParam(r, "id"))

	p, err := h.Ledger.GetByTransactionID(r.Context(), txid)
	if err != nil {
		writeDomainError(w, err, "Failed to get purchase")
		return
	}

	writeJSON(w, http.StatusOK, toPurchaseDTO(p))
}

// GetPurchaseQRCode returns the scannable code for a purchase as an
// inline data URI.
// GET /api/purchases/{id}/qrcode
func (h *Handler) GetPurchaseQRCode(w http.ResponseWriter, r *http.Request) {
	txid := purchase.TransactionID(chi.URLParam(r, "id"))

	code, err := h.Resolver.Resolve(r.Context(), txid)
	if err != nil {
		writeDomainError(w, err, "Failed to generate qr code")
		return
	}

	writeJSON(w, http.StatusOK, toQRCodeDTO(code))
}

// UpdatePurchase applies the generic CRUD patch by NUMERIC id. The ledger
// rejects patches touching price or transaction_id.
// PATCH /api/purchases/{id}
func (h *Handler) UpdatePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "id must be numeric", nil)
		return
	}

	var req UpdatePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch := purchase.PurchasePatch{ProductID: req.ProductID}
	if req.Price != nil {
		d := decimal.NewFromFloat(*req.Price)
		patch.Price = &d
	}
	if req.TransactionID != nil {
		t := purchase.TransactionID(*req.TransactionID)
		patch.TransactionID = &t
	}

	p, err := h.Ledger.Update(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, err, "Failed to update purchase")
		return
	}

	writeJSON(w, http.StatusOK, toPurchaseDTO(p))
}

// DeletePurchase removes a purchase by NUMERIC id.
// DELETE /api/purchases/{id}
func (h *Handler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "id must be numeric", nil)
		return
	}

	if err := h.Ledger.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, "Failed to delete purchase")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func parsePaging(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 {
		pageSize = purchase.DefaultPageSize
	}
	if pageSize > purchase.MaxPageSize {
		pageSize = purchase.MaxPageSize
	}
	return page, pageSize
}

// writeDomainError maps purchase errors to HTTP statuses. Unclassified
// errors come out as an opaque 500: storage internals stay out of
// responses.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case purchase.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case purchase.IsClientError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case purchase.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, fallback, nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
