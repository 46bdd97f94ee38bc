package capability

import (
	"bytes"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

func TestKeccakAttestor(t *testing.T) {
	a := NewKeccakAttestor()

	if _, ok := a.CodeHash("hbd"); ok {
		t.Fatalf("expected unknown asset before registration")
	}

	code := []byte("contract bytecode")
	a.Register("hbd", code)

	h, ok := a.CodeHash("hbd")
	if !ok {
		t.Fatalf("expected registered asset to be known")
	}
	if !bytes.Equal(h, ethcrypto.Keccak256(code)) {
		t.Fatalf("hash mismatch")
	}
}

func TestSecp256k1Verifier(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	digest := ethcrypto.Keccak256([]byte("swap intent"))
	sig, err := ethcrypto.Sign(digest, key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	pub := ethcrypto.FromECDSAPub(&key.PublicKey)
	v := Secp256k1Verifier{}

	// Drop the recovery id byte; Verify takes R||S.
	if !v.Verify(digest, sig[:64], pub) {
		t.Fatalf("expected valid signature to verify")
	}

	other := ethcrypto.Keccak256([]byte("different intent"))
	if v.Verify(other, sig[:64], pub) {
		t.Fatalf("expected signature over different digest to fail")
	}

	if v.Verify(digest[:16], sig[:64], pub) {
		t.Fatalf("expected short digest to fail")
	}
}
