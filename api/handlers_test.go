/*
handlers_test.go - HTTP API tests

Exercises the full stack end to end: router -> handlers -> service/ledger
-> SQLite (in-memory). No mocks; what the storefront frontend sees is what
these tests see.
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/storefront/purchase-engine/purchase"
	"github.com/storefront/purchase-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const testBaseURL = "https://shop.example.com"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewRouter(NewHandler(store, testBaseURL))
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func seedProduct(t *testing.T, router http.Handler, id string, price float64) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/products", map[string]any{
		"id":    id,
		"name":  "Product " + id,
		"price": price,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
}

func recordPurchase(t *testing.T, router http.Handler, productID string) PurchaseDTO {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/purchases", map[string]any{"product_id": productID})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return decode[PurchaseDTO](t, rec)
}

// =============================================================================
// PURCHASE PIPELINE
// =============================================================================

func TestCreatePurchase(t *testing.T) {
	// GIVEN: A catalog product priced 19.99
	// WHEN: Recording a purchase of it
	// THEN: The response carries a minted transaction id and the snapshot price

	router := newTestRouter(t)
	seedProduct(t, router, "p1", 19.99)

	dto := recordPurchase(t, router, "p1")
	assert.NotZero(t, dto.ID)
	assert.Equal(t, "p1", dto.ProductID)
	assert.InDelta(t, 19.99, dto.Price, 0.001)
	assert.True(t, purchase.TransactionID(dto.TransactionID).Valid(),
		"minted id should be well formed: %s", dto.TransactionID)
	assert.NotEmpty(t, dto.CreatedAt)
}

func TestCreatePurchase_SnapshotSurvivesRepricing(t *testing.T) {
	router := newTestRouter(t)
	seedProduct(t, router, "p1", 19.99)

	dto := recordPurchase(t, router, "p1")

	// Reprice the product after the sale.
	rec := doJSON(t, router, http.MethodPatch, "/api/products/p1", map[string]any{"price": 24.99})
	require.Equal(t, http.StatusOK, rec.Code)

	// The catalog shows the new price...
	rec = doJSON(t, router, http.MethodGet, "/api/products/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 24.99, decode[ProductDTO](t, rec).Price, 0.001)

	// ...the recorded purchase keeps the old one.
	rec = doJSON(t, router, http.MethodGet, "/api/purchases/"+dto.TransactionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 19.99, decode[PurchaseDTO](t, rec).Price, 0.001)
}

func TestCreatePurchase_UnknownProduct(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/purchases", map[string]any{"product_id": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The failed attempt must not leave a record behind.
	rec = doJSON(t, router, http.MethodGet, "/api/purchases", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[PurchasePageDTO](t, rec).Total)
}

func TestCreatePurchase_RejectsCallerPrice(t *testing.T) {
	router := newTestRouter(t)
	seedProduct(t, router, "p1", 19.99)

	rec := doJSON(t, router, http.MethodPost, "/api/purchases", map[string]any{
		"product_id": "p1",
		"price":      0.01,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreatePurchase_MissingProductID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/purchases", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetPurchase_UnknownTransactionID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/purchases/TXN_000000000000_1700000000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// SCANNABLE CODES
// =============================================================================

func TestGetPurchaseQRCode(t *testing.T) {
	router := newTestRouter(t)
	seedProduct(t, router, "p1", 19.99)
	dto := recordPurchase(t, router, "p1")

	rec := doJSON(t, router, http.MethodGet, "/api/purchases/"+dto.TransactionID+"/qrcode", nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	code := decode[QRCodeDTO](t, rec)
	assert.Equal(t, dto.TransactionID, code.TransactionID)
	assert.Equal(t, testBaseURL+"/purchases/"+dto.TransactionID, code.URL)
	assert.True(t, strings.HasPrefix(code.QRCodeURL, "data:image/png;base64,"),
		"qr_code_url should be a PNG data URI: %.40s", code.QRCodeURL)

	// Regenerable: a second request yields the identical code.
	rec = doJSON(t, router, http.MethodGet, "/api/purchases/"+dto.TransactionID+"/qrcode", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, code.QRCodeURL, decode[QRCodeDTO](t, rec).QRCodeURL)
}

func TestGetPurchaseQRCode_UnknownTransactionID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/purchases/TXN_000000000000_1700000000/qrcode", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// GENERIC PURCHASE CRUD
// =============================================================================

func TestUpdatePurchase_RejectsFrozenFields(t *testing.T) {
	// GIVEN: A recorded purchase
	// WHEN: Patching price or transaction_id
	// THEN: 422, and the stored record is untouched

	router := newTestRouter(t)
	seedProduct(t, router, "p1", 19.99)
	dto := recordPurchase(t, router, "p1")
	path := fmt.Sprintf("/api/purchases/%d", dto.ID)

	rec := doJSON(t, router, http.MethodPatch, path, map[string]any{"price": 0.01})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPatch, path, map[string]any{"transaction_id": "TXN_999999999999_1700000000"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/purchases/"+dto.TransactionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decode[PurchaseDTO](t, rec)
	assert.InDelta(t, 19.99, stored.Price, 0.001)
	assert.Equal(t, dto.TransactionID, stored.TransactionID)
}

func TestUpdatePurchase_ProductID(t *testing.T) {
	router := newTestRouter(t)
	seedProduct(t, router, "p1", 19.99)
	dto := recordPurchase(t, router, "p1")

	rec := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/purchases/%d", dto.ID),
		map[string]any{"product_id": "p2"})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	updated := decode[PurchaseDTO](t, rec)
	assert.Equal(t, "p2", updated.ProductID)
	assert.InDelta(t, 19.99, updated.Price, 0.001, "price stays snapshotted")
}

func TestUpdatePurchase_NonNumericID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPatch, "/api/purchases/not-a-number",
		map[string]any{"product_id": "p2"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDeletePurchase(t *testing.T) {
	router := newTestRouter(t)
	seedProduct(t, router, "p1", 19.99)
	dto := recordPurchase(t, router, "p1")
	path := fmt.Sprintf("/api/purchases/%d", dto.ID)

	rec := doJSON(t, router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPurchases_NewestFirstPaged(t *testing.T) {
	router := newTestRouter(t)
	seedProduct(t, router, "p1", 19.99)

	var ids []int64
	for i := 0; i < 3; i++ {
		ids = append(ids, recordPurchase(t, router, "p1").ID)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/purchases?page=1&page_size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[PurchasePageDTO](t, rec)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.PageSize)
	require.Len(t, page.Purchases, 2)
	assert.Equal(t, ids[2], page.Purchases[0].ID)
	assert.Equal(t, ids[1], page.Purchases[1].ID)

	rec = doJSON(t, router, http.MethodGet, "/api/purchases?page=2&page_size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[PurchasePageDTO](t, rec)
	require.Len(t, page.Purchases, 1)
	assert.Equal(t, ids[0], page.Purchases[0].ID)
}

// =============================================================================
// PRODUCT CRUD
// =============================================================================

func TestProducts_CRUD(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/products", map[string]any{
		"id":          "p1",
		"name":        "Espresso Cup",
		"price":       19.99,
		"description": "Stoneware, 90ml",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/products/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[ProductDTO](t, rec)
	assert.Equal(t, "Espresso Cup", got.Name)
	assert.InDelta(t, 19.99, got.Price, 0.001)

	rec = doJSON(t, router, http.MethodPatch, "/api/products/p1", map[string]any{"name": "Espresso Cup v2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Espresso Cup v2", decode[ProductDTO](t, rec).Name)

	rec = doJSON(t, router, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[ProductPageDTO](t, rec).Total)

	rec = doJSON(t, router, http.MethodDelete, "/api/products/p1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/products/p1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateProduct_Validation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/products", map[string]any{"id": "p1", "name": "No Price"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "missing price")

	rec = doJSON(t, router, http.MethodPost, "/api/products", map[string]any{"name": "No ID", "price": 1.0})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "missing id")

	rec = doJSON(t, router, http.MethodPost, "/api/products", map[string]any{"id": "p1", "price": 1.0})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "missing name")
}

func TestUpdateProduct_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPatch, "/api/products/ghost", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
