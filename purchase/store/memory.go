// Package store provides an in-memory purchase Store for tests and dev.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/storefront/purchase-engine/purchase"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	nextID    int64
	purchases map[int64]purchase.Purchase
	byTxID    map[purchase.TransactionID]int64
}

func NewMemory() *Memory {
	return &Memory{
		nextID:    1,
		purchases: make(map[int64]purchase.Purchase),
		byTxID:    make(map[purchase.TransactionID]int64),
	}
}

// Insert stores a new purchase, enforcing transaction id uniqueness the
// way the SQLite unique index does.
func (m *Memory) Insert(_ context.Context, p *purchase.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byTxID[p.TransactionID]; taken {
		return purchase.ErrDuplicateTransactionID
	}

	now := time.Now().UTC()
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt = now
	p.UpdatedAt = now

	m.purchases[p.ID] = *p
	m.byTxID[p.TransactionID] = p.ID
	return nil
}

func (m *Memory) GetByID(_ context.Context, id int64) (*purchase.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.purchases[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) GetByTransactionID(_ context.Context, txid purchase.TransactionID) (*purchase.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byTxID[txid]
	if !ok {
		return nil, nil
	}
	p := m.purchases[id]
	return &p, nil
}

func (m *Memory) List(_ context.Context, page, pageSize int) ([]purchase.Purchase, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]purchase.Purchase, 0, len(m.purchases))
	for _, p := range m.purchases {
		all = append(all, p)
	}
	// Newest first; ids are assigned in creation order.
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	start := (page - 1) * pageSize
	if start >= len(all) {
		return []purchase.Purchase{}, len(all), nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

// Update rewrites the product reference only.
func (m *Memory) Update(_ context.Context, id int64, productID string) (*purchase.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.purchases[id]
	if !ok {
		return nil, nil
	}
	p.ProductID = productID
	p.UpdatedAt = time.Now().UTC()
	m.purchases[id] = p
	return &p, nil
}

func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.purchases[id]
	if !ok {
		return purchase.ErrPurchaseNotFound
	}
	delete(m.byTxID, p.TransactionID)
	delete(m.purchases, id)
	return nil
}
