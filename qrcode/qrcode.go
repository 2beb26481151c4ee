/*
Package qrcode turns a transaction identifier into a scannable code.

The Resolver builds the canonical purchase detail URL, verifies the
purchase exists, and returns an inline PNG data URI. Nothing is persisted:
the code is regenerable at any time from the transaction id alone, and
encoding the same id twice yields byte-identical output.

The rendering backend is injected through the Encoder interface so the
resolver is testable without producing real images and the library can be
swapped without touching callers.
*/
package qrcode

import (
	qr "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered PNG edge length in pixels.
const DefaultSize = 256

// Encoder renders a URL as scannable image bytes.
type Encoder interface {
	Encode(url string) ([]byte, error)
}

// PNG encodes URLs as PNG QR codes.
type PNG struct {
	// Size is the image edge length in pixels; 0 means DefaultSize.
	Size int
}

func (e PNG) Encode(url string) ([]byte, error) {
	size := e.Size
	if size <= 0 {
		size = DefaultSize
	}
	return qr.Encode(url, qr.Medium, size)
}
