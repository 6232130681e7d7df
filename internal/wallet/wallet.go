package wallet

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var ErrMissingKey = errors.New("PRIVATE_KEY is not set")

// Signer signs transactions on behalf of one wallet.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(tx *solana.Transaction, extra ...solana.PrivateKey) error
}

// MemoryWallet keeps the secret key in memory for the lifetime of a command.
type MemoryWallet struct {
	privateKey solana.PrivateKey
}

func NewMemoryWallet(privateKey solana.PrivateKey) *MemoryWallet {
	return &MemoryWallet{privateKey: privateKey}
}

// FromBase58 decodes a base58 secret key (the 64-byte form exported by
// Phantom and solana-keygen). Errors never include the key itself.
func FromBase58(secret string) (*MemoryWallet, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrMissingKey
	}
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, errors.New("invalid private key: not base58")
	}
	if len(raw) != 64 {
		clear(raw)
		return nil, fmt.Errorf("invalid private key: expected 64 bytes, got %d", len(raw))
	}
	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	defer clear(derived)
	if !bytes.Equal(derived[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
		clear(raw)
		return nil, errors.New("invalid private key: public half does not match")
	}
	return NewMemoryWallet(solana.PrivateKey(raw)), nil
}

func (w *MemoryWallet) PublicKey() solana.PublicKey {
	return w.privateKey.PublicKey()
}

// SignTransaction replaces any signatures already on tx (a builder returns
// zeroed placeholders) with signatures from this wallet and the extra keys.
// Every required signer must be one of them.
func (w *MemoryWallet) SignTransaction(tx *solana.Transaction, extra ...solana.PrivateKey) error {
	tx.Signatures = nil
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.PublicKey()) {
			return &w.privateKey
		}
		for i := range extra {
			if key.Equals(extra[i].PublicKey()) {
				return &extra[i]
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

// Wipe zeroes the key material.
func (w *MemoryWallet) Wipe() {
	clear(w.privateKey)
}
