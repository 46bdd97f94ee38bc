// Package capability defines the external collaborators the engine depends
// on: time, code attestation, signature verification, and asset transfer.
// The engine only sees these interfaces; production wiring and test fakes
// both live behind them.
package capability

import (
	"context"
	"time"
)

// Clock supplies the current time. The engine never reads time.Now directly
// so reward accrual, time-locks, and deadlines are testable.
type Clock interface {
	Now() time.Time
}

// CodeAttestor resolves an asset's originating contract to a content hash.
// The second return is false when the contract is unknown.
type CodeAttestor interface {
	CodeHash(asset string) ([]byte, bool)
}

// SignatureVerifier checks a signature over a message digest.
type SignatureVerifier interface {
	Verify(digest, sig, pubKey []byte) bool
}

// AssetTransfer moves asset balances between accounts. The host environment
// guarantees the transfer is atomic with the enclosing operation.
type AssetTransfer interface {
	Transfer(ctx context.Context, from, to, asset string, amount uint64) error
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
