/*
service.go - Purchase orchestrator

PURPOSE:
  Composes one purchase as a single unit of work:

    1. Look up the product - fail ErrProductNotFound if absent
    2. Snapshot its current price
    3. Mint a transaction id
    4. Persist through the Ledger, retrying a bounded number of times if
       the id collides

  The price is read from the catalog inside the same call that records it,
  never cached from an earlier request and never accepted from the caller.
  Nothing is minted or written when the product lookup fails.

CONCURRENCY:
  Purchases are independent rows. Concurrent purchases of the same product
  each read the catalog price at their own request time and never block
  each other.

SEE ALSO:
  - ledger.go: invariant enforcement
  - txid.go: identifier generation
  - catalog: the collaborator supplying products
*/
package purchase

import (
	"context"

	"github.com/storefront/purchase-engine/catalog"
)

// maxMintAttempts bounds transaction-id collision retries. With 36^12
// random tokens a repeated collision means something is broken; surface
// the conflict instead of looping.
const maxMintAttempts = 3

// Service records purchases.
type Service struct {
	catalog  catalog.Reader
	ledger   *Ledger
	generate Generator
}

func NewService(cat catalog.Reader, ledger *Ledger) *Service {
	return NewServiceWithGenerator(cat, ledger, NewGenerator())
}

// NewServiceWithGenerator injects the id generator. Tests use this to
// force collisions.
func NewServiceWithGenerator(cat catalog.Reader, ledger *Ledger, gen Generator) *Service {
	return &Service{catalog: cat, ledger: ledger, generate: gen}
}

// Purchase records the sale of one product and returns the stored record.
func (s *Service) Purchase(ctx context.Context, productID string) (*Purchase, error) {
	if productID == "" {
		return nil, &ValidationError{Field: "product_id", Reason: "must not be empty"}
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	// The snapshot price comes from the lookup above; nothing else may
	// supply it.
	var lastErr error
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		p, err := s.ledger.Create(ctx, product.ID, product.Price, s.generate())
		if err == nil {
			return p, nil
		}
		if !IsConflict(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
