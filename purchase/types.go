/*
types.go - Purchase entity and supporting types

PURPOSE:
  The Purchase record is the one thing this system must get right beyond
  plumbing: an immutable row binding a product reference, a frozen price,
  and a unique external lookup key.

KEY CONCEPTS:
  - TransactionID: the only key external parties (receipts, QR scans) may
    use to find a purchase. URL-safe, globally unique, assigned once.
  - Price: a copy of the product price at purchase time. Decoupled from
    the live catalog price from the moment the row is written.

DESIGN PRINCIPLES:
  1. Immutability: price and transaction id never change after creation
  2. Precision: decimal.Decimal, never float, for money
  3. Two keys: numeric row id internally, transaction id externally

SEE ALSO:
  - txid.go: TransactionID generation and validation
  - ledger.go: persistence interface and invariant enforcement
*/
package purchase

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionID is the external-facing lookup key of a Purchase.
type TransactionID string

func (id TransactionID) String() string { return string(id) }

// Purchase is a recorded sale of one catalog product.
type Purchase struct {
	ID            int64
	TransactionID TransactionID
	ProductID     string
	Price         decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PurchasePatch carries the fields the generic update path may submit.
// Price and TransactionID are present only so the ledger can refuse them.
type PurchasePatch struct {
	ProductID     *string
	Price         *decimal.Decimal
	TransactionID *TransactionID
}

// Page is one page of purchases, newest first.
type Page struct {
	Items    []Purchase
	Page     int
	PageSize int
	Total    int
}
