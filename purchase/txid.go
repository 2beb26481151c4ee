/*
txid.go - Transaction identifier generation

FORMAT:
  TXN_<token>_<unixtime>

  token:    12 crypto-random characters from [0-9a-z]
  unixtime: creation time in unix seconds

  The token alphabet excludes underscore, so the separator is unambiguous
  and the whole identifier is URL-safe without escaping.

UNIQUENESS:
  36^12 random tokens make collisions practically unreachable, but the
  generator is a probabilistic optimization only - the store's unique
  index is the correctness boundary. See ledger.go.

  The token is not derived from any counter, so a scanner holding one
  receipt cannot enumerate other purchases.

FAILURE MODE:
  None observable. nanoid reads crypto/rand, which blocks until entropy
  is available rather than returning weak output.
*/
package purchase

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jaevor/go-nanoid"
)

const (
	txidPrefix    = "TXN"
	tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	tokenLength   = 12
)

// Generator mints transaction identifiers.
type Generator func() TransactionID

// NewGenerator returns a Generator backed by crypto-random tokens.
func NewGenerator() Generator {
	newToken, err := nanoid.CustomASCII(tokenAlphabet, tokenLength)
	if err != nil {
		// Only reachable with an invalid alphabet or length; both are constants.
		panic(fmt.Sprintf("txid generator: %v", err))
	}
	return func() TransactionID {
		return TransactionID(fmt.Sprintf("%s_%s_%d", txidPrefix, newToken(), time.Now().Unix()))
	}
}

// Valid reports whether id has the TXN_<token>_<unixtime> shape produced
// by NewGenerator.
func (id TransactionID) Valid() bool {
	parts := strings.Split(string(id), "_")
	if len(parts) != 3 || parts[0] != txidPrefix {
		return false
	}
	if len(parts[1]) != tokenLength {
		return false
	}
	for _, c := range parts[1] {
		if !strings.ContainsRune(tokenAlphabet, c) {
			return false
		}
	}
	_, err := strconv.ParseInt(parts[2], 10, 64)
	return err == nil
}
