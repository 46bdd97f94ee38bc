package capability

import (
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// KeccakAttestor maps asset identifiers to the Keccak-256 hash of their
// registered contract code. Assets without a registration report unknown.
type KeccakAttestor struct {
	mu     sync.RWMutex
	hashes map[string][]byte
}

func NewKeccakAttestor() *KeccakAttestor {
	return &KeccakAttestor{hashes: make(map[string][]byte)}
}

// Register stores the code hash for an asset's contract.
func (a *KeccakAttestor) Register(asset string, code []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hashes[asset] = ethcrypto.Keccak256(code)
}

// CodeHash returns the registered hash for asset, or false when unknown.
func (a *KeccakAttestor) CodeHash(asset string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	h, ok := a.hashes[asset]
	return h, ok
}

// Secp256k1Verifier verifies secp256k1 signatures over 32-byte digests.
type Secp256k1Verifier struct{}

// Verify expects a 64-byte R||S signature (no recovery id) and an
// uncompressed or compressed public key.
func (Secp256k1Verifier) Verify(digest, sig, pubKey []byte) bool {
	if len(digest) != 32 || len(sig) != 64 {
		return false
	}
	return ethcrypto.VerifySignature(pubKey, digest, sig)
}
