package engine

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// SwapIntent is an off-chain-signed order to execute a swap on the signer's
// behalf.
type SwapIntent struct {
	Trader       string `json:"trader"`
	PoolID       uint64 `json:"pool_id"`
	AssetIn      string `json:"asset_in"`
	AmountIn     uint64 `json:"amount_in"`
	MinAmountOut uint64 `json:"min_amount_out"`
	Deadline     int64  `json:"deadline"`
}

// Digest returns the 32-byte message digest the intent must be signed over.
// Variable-length fields are length-prefixed so no two distinct intents
// share an encoding.
func (i SwapIntent) Digest() []byte {
	h := sha256.New()
	writeString := func(s string) {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	writeUint64 := func(v uint64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		h.Write(b[:])
	}
	writeString(i.Trader)
	writeUint64(i.PoolID)
	writeString(i.AssetIn)
	writeUint64(i.AmountIn)
	writeUint64(i.MinAmountOut)
	writeUint64(uint64(i.Deadline))
	return h.Sum(nil)
}

// ExecuteSignedSwap verifies the intent's signature through the signature
// collaborator and then executes it as a regular swap.
func (e *Engine) ExecuteSignedSwap(ctx context.Context, intent SwapIntent, sig, pubKey []byte) (SwapResult, error) {
	if e.verifier == nil {
		return SwapResult{}, fmt.Errorf("signed swap: no verifier configured: %w", ErrInvalidSignature)
	}
	if !e.verifier.Verify(intent.Digest(), sig, pubKey) {
		return SwapResult{}, fmt.Errorf("signed swap: %w", ErrInvalidSignature)
	}
	return e.ExecuteSwap(ctx, intent.PoolID, intent.Trader, intent.AssetIn, intent.AmountIn, intent.MinAmountOut, intent.Deadline)
}
