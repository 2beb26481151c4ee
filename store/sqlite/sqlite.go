/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements both persistence interfaces (purchase.Store, catalog.Store)
  using SQLite. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  purchase.Store: purchase persistence and lookup
  catalog.Store:  product CRUD

KEY TABLES:
  products:  catalog items, prices mutable by the catalog owner
  purchases: one immutable row per sale

INVARIANT ENFORCEMENT:
  idx_purchases_transaction_id is a UNIQUE index. Transaction id
  uniqueness is guaranteed here, at the storage layer, not by the random
  generator - concurrent inserts of the same id cannot both succeed.
  The UPDATE statement on purchases sets product_id and updated_at only;
  price and transaction_id have no write path after insert.

DECIMALS:
  Prices are stored as TEXT in decimal string form. SQLite REAL would
  reintroduce the floating-point drift decimal.Decimal exists to avoid.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. With PostgreSQL, database-level
  concurrency control would handle this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block
  and crash recovery is cheap.

USAGE:
  store, err := sqlite.New("./data/storefront.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := purchase.NewLedger(store)

SEE ALSO:
  - purchase/ledger.go: interface definition and invariant wrapper
  - purchase/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/storefront/purchase-engine/catalog"
	"github.com/storefront/purchase-engine/purchase"
)

// Store implements purchase.Store and catalog.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Products (catalog; prices mutable at any time)
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		description TEXT,
		image_url TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_products_created_at
		ON products(created_at DESC);

	-- Purchases (one immutable row per sale)
	CREATE TABLE IF NOT EXISTS purchases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		price TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- CRITICAL: transaction id uniqueness lives here, not in application
	-- code. Also makes lookup-by-transaction-id as cheap as lookup-by-id.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_purchases_transaction_id
		ON purchases(transaction_id);

	-- Newest-first listing (hot path)
	CREATE INDEX IF NOT EXISTS idx_purchases_created_at
		ON purchases(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PURCHASE STORE (purchase.Store interface)
// =============================================================================

const purchaseColumns = "id, transaction_id, product_id, price, created_at, updated_at"

// Insert persists a purchase, assigning its numeric id and timestamps.
func (s *Store) Insert(ctx context.Context, p *purchase.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO purchases (transaction_id, product_id, price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(p.TransactionID),
		p.ProductID,
		p.Price.String(),
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return purchase.ErrDuplicateTransactionID
		}
		return fmt.Errorf("failed to insert purchase: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read purchase id: %w", err)
	}

	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetByID returns a purchase by numeric id, or (nil, nil) if absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*purchase.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+purchaseColumns+" FROM purchases WHERE id = ?", id)
	return scanPurchase(row)
}

// GetByTransactionID returns a purchase by its external key, or (nil, nil)
// if absent. Exact, case-sensitive, served by the unique index.
func (s *Store) GetByTransactionID(ctx context.Context, txid purchase.TransactionID) (*purchase.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+purchaseColumns+" FROM purchases WHERE transaction_id = ?", string(txid))
	return scanPurchase(row)
}

// List returns one page of purchases, newest first, plus the total count.
func (s *Store) List(ctx context.Context, page, pageSize int) ([]purchase.Purchase, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM purchases").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count purchases: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		ORDER BY id DESC
		LIMIT ? OFFSET ?`,
		pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer rows.Close()

	purchases := []purchase.Purchase{}
	for rows.Next() {
		p, err := scanPurchaseRow(rows)
		if err != nil {
			return nil, 0, err
		}
		purchases = append(purchases, *p)
	}

	return purchases, total, rows.Err()
}

// Update rewrites the product reference. Price and transaction_id are not
// part of the statement, so they cannot drift even if the ledger guard is
// bypassed.
func (s *Store) Update(ctx context.Context, id int64, productID string) (*purchase.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE purchases SET product_id = ?, updated_at = ? WHERE id = ?`,
		productID, time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update purchase: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+purchaseColumns+" FROM purchases WHERE id = ?", id)
	return scanPurchase(row)
}

// Delete removes a purchase by numeric id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM purchases WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return purchase.ErrPurchaseNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPurchase(row *sql.Row) (*purchase.Purchase, error) {
	p, err := scanPurchaseRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func scanPurchaseRow(row rowScanner) (*purchase.Purchase, error) {
	var (
		p         purchase.Purchase
		txid      string
		price     string
		createdAt string
		updatedAt string
	)

	if err := row.Scan(&p.ID, &txid, &p.ProductID, &price, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan purchase: %w", err)
	}

	p.TransactionID = purchase.TransactionID(txid)
	p.Price = mustParseDecimal(price)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

// =============================================================================
// PRODUCT STORE (catalog.Store interface)
// =============================================================================

const productColumns = "id, name, price, description, image_url, created_at, updated_at"

// SaveProduct inserts or updates a product. created_at is preserved on
// update.
func (s *Store) SaveProduct(ctx context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	query := `
		INSERT INTO products (id, name, price, description, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			description = excluded.description,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Price.String(), p.Description, p.ImageURL,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// GetProduct returns a product by id, or (nil, nil) if absent.
func (s *Store) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ?", id)

	p, err := scanProductRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListProducts returns one page of products, newest first, plus the total
// count.
func (s *Store) ListProducts(ctx context.Context, page, pageSize int) ([]catalog.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`,
		pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []catalog.Product{}
	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}

	return products, total, rows.Err()
}

// DeleteProduct removes a product.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	return err
}

func scanProductRow(row rowScanner) (*catalog.Product, error) {
	var (
		p           catalog.Product
		price       string
		description sql.NullString
		imageURL    sql.NullString
		createdAt   string
		updatedAt   string
	)

	if err := row.Scan(&p.ID, &p.Name, &price, &description, &imageURL, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	p.Price = mustParseDecimal(price)
	p.Description = description.String
	p.ImageURL = imageURL.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func mustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
