// Package wallet holds the signing key abstraction. Read paths of the
// console never see a Signer; only the signing client carries one, so
// "can this code sign" is a compile-time property.
package wallet

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Signer produces signatures for a single fee-payer identity.
type Signer interface {
	PublicKey() solana.PublicKey
	// PrivateKeyFor returns the private key matching the requested signer
	// account, or nil when this wallet does not hold it. The shape matches
	// the solana-go transaction signing callback.
	PrivateKeyFor(key solana.PublicKey) *solana.PrivateKey
}

// Keypair is a Signer backed by a locally held ed25519 private key.
type Keypair struct {
	key solana.PrivateKey
}

// LoadKeypair reads a standard solana-keygen JSON byte-array file.
func LoadKeypair(path string) (*Keypair, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("load keypair %q: %w", path, err)
	}
	return &Keypair{key: key}, nil
}

// NewKeypair wraps an in-memory private key, mostly for tests.
func NewKeypair(key solana.PrivateKey) *Keypair {
	return &Keypair{key: key}
}

func (k *Keypair) PublicKey() solana.PublicKey {
	return k.key.PublicKey()
}

func (k *Keypair) PrivateKeyFor(key solana.PublicKey) *solana.PrivateKey {
	if key.Equals(k.key.PublicKey()) {
		return &k.key
	}
	return nil
}
