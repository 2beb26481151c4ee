/*
ledger.go - The authoritative store of purchase records

PURPOSE:
  The Ledger owns the Purchase invariants. Storage backends implement the
  narrow Store interface; the Ledger layers validation and invariant
  enforcement on top, so the rules are testable without a database.

CRITICAL INVARIANTS:
  1. UNIQUE: transaction_id never repeats for the lifetime of the system.
     The store's unique index is the correctness boundary; the random
     generator only makes collisions unlikely.
  2. FROZEN: price and transaction_id cannot change after creation. The
     generic update path accepts a patch and rejects any patch touching
     either field. The store's Update signature cannot reach them at all.
  3. COMPLETE: a purchase row is written in a single insert. Readers never
     observe a record missing its price or transaction id.

SEE ALSO:
  - store/sqlite/sqlite.go: production Store
  - purchase/store/memory.go: in-memory Store for tests
  - service.go: the orchestrator calling Create
*/
package purchase

import (
	"context"

	"github.com/shopspring/decimal"
)

// List paging follows the original storefront: 10 records per page.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Store is the persistence interface for purchases.
//
// Get methods return (nil, nil) when nothing matches; the Ledger converts
// that to ErrPurchaseNotFound. Insert must fail with
// ErrDuplicateTransactionID when the transaction id is already taken.
type Store interface {
	// Insert persists p atomically, assigning ID, CreatedAt and UpdatedAt.
	Insert(ctx context.Context, p *Purchase) error

	// GetByID looks a purchase up by its internal numeric id.
	GetByID(ctx context.Context, id int64) (*Purchase, error)

	// GetByTransactionID is an indexed, case-sensitive exact lookup.
	// Scanned codes resolve through this path; it must be as cheap as
	// GetByID.
	GetByTransactionID(ctx context.Context, id TransactionID) (*Purchase, error)

	// List returns one page of purchases, newest first, plus total count.
	List(ctx context.Context, page, pageSize int) ([]Purchase, int, error)

	// Update rewrites the product reference only. Price and transaction
	// id are not reachable through any store write after Insert.
	Update(ctx context.Context, id int64, productID string) (*Purchase, error)

	// Delete removes a purchase. Returns ErrPurchaseNotFound if absent.
	Delete(ctx context.Context, id int64) error
}

// Ledger enforces purchase invariants over a Store.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Create persists a new purchase with the given snapshot price and minted
// transaction id.
func (l *Ledger) Create(ctx context.Context, productID string, price decimal.Decimal, txid TransactionID) (*Purchase, error) {
	if productID == "" {
		return nil, &ValidationError{Field: "product_id", Reason: "must not be empty"}
	}
	if !txid.Valid() {
		return nil, &ValidationError{Field: "transaction_id", Reason: "malformed identifier"}
	}
	if price.IsNegative() {
		return nil, &ValidationError{Field: "price", Reason: "must not be negative"}
	}

	p := &Purchase{
		TransactionID: txid,
		ProductID:     productID,
		Price:         price,
	}
	if err := l.store.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID resolves a purchase by its internal numeric id.
func (l *Ledger) GetByID(ctx context.Context, id int64) (*Purchase, error) {
	p, err := l.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPurchaseNotFound
	}
	return p, nil
}

// GetByTransactionID resolves a purchase by its external key. This is the
// lookup a scanned receipt performs.
func (l *Ledger) GetByTransactionID(ctx context.Context, id TransactionID) (*Purchase, error) {
	p, err := l.store.GetByTransactionID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPurchaseNotFound
	}
	return p, nil
}

// List returns one page of purchases, newest first. Out-of-range paging
// values are clamped to defaults.
func (l *Ledger) List(ctx context.Context, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	items, total, err := l.store.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

// Update applies the generic CRUD patch. Patches touching price or
// transaction_id violate the immutability invariant and are rejected.
func (l *Ledger) Update(ctx context.Context, id int64, patch PurchasePatch) (*Purchase, error) {
	if patch.Price != nil {
		return nil, &ImmutableFieldError{Field: "price"}
	}
	if patch.TransactionID != nil {
		return nil, &ImmutableFieldError{Field: "transaction_id"}
	}
	if patch.ProductID == nil {
		return nil, &ValidationError{Field: "product_id", Reason: "nothing to update"}
	}
	if *patch.ProductID == "" {
		return nil, &ValidationError{Field: "product_id", Reason: "must not be empty"}
	}

	p, err := l.store.Update(ctx, id, *patch.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPurchaseNotFound
	}
	return p, nil
}

// Delete removes a purchase by its numeric id.
func (l *Ledger) Delete(ctx context.Context, id int64) error {
	return l.store.Delete(ctx, id)
}
