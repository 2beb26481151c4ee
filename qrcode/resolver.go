package qrcode

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/storefront/purchase-engine/purchase"
)

// Options configures the Resolver.
type Options struct {
	// PublicBaseURL is the externally reachable origin used to build the
	// scannable URL, e.g. "https://shop.example.com". A trailing slash is
	// tolerated.
	PublicBaseURL string
}

// Code is a resolved scannable code.
type Code struct {
	TransactionID purchase.TransactionID
	URL           string
	DataURI       string
}

// Resolver builds and encodes purchase detail URLs.
type Resolver struct {
	ledger  *purchase.Ledger
	encoder Encoder
	baseURL string
}

func NewResolver(ledger *purchase.Ledger, encoder Encoder, opts Options) *Resolver {
	return &Resolver{
		ledger:  ledger,
		encoder: encoder,
		baseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
	}
}

// URL returns the canonical detail-page URL for a transaction id.
func (r *Resolver) URL(id purchase.TransactionID) string {
	return fmt.Sprintf("%s/purchases/%s", r.baseURL, id)
}

// Resolve verifies the purchase exists and returns its scannable code.
// A code is never minted for an unknown transaction id - that would hand
// out valid-looking receipts pointing at nothing.
func (r *Resolver) Resolve(ctx context.Context, id purchase.TransactionID) (*Code, error) {
	if _, err := r.ledger.GetByTransactionID(ctx, id); err != nil {
		return nil, err
	}

	url := r.URL(id)
	png, err := r.encoder.Encode(url)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	return &Code{
		TransactionID: id,
		URL:           url,
		DataURI:       "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}
