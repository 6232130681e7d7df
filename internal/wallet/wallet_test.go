package wallet

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBase58(t *testing.T) {
	key := solana.NewWallet().PrivateKey

	w, err := FromBase58(key.String())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.PublicKey())
}

func TestFromBase58Errors(t *testing.T) {
	_, err := FromBase58("  ")
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = FromBase58("0OIl")
	assert.EqualError(t, err, "invalid private key: not base58")

	_, err = FromBase58(base58.Encode(make([]byte, 32)))
	assert.EqualError(t, err, "invalid private key: expected 64 bytes, got 32")

	// Seed and public half from two different keys.
	a := solana.NewWallet().PrivateKey
	b := solana.NewWallet().PrivateKey
	mixed := append(append([]byte{}, a[:32]...), b[32:]...)
	_, err = FromBase58(base58.Encode(mixed))
	assert.EqualError(t, err, "invalid private key: public half does not match")
}

func TestSignTransactionReplacesPlaceholders(t *testing.T) {
	owner := solana.NewWallet().PrivateKey
	w := NewMemoryWallet(owner)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, owner.PublicKey(), solana.NewWallet().PublicKey()).Build(),
		},
		solana.Hash{1},
		solana.TransactionPayer(owner.PublicKey()),
	)
	require.NoError(t, err)
	tx.Signatures = []solana.Signature{{}}

	require.NoError(t, w.SignTransaction(tx))
	require.Len(t, tx.Signatures, 1)
	assert.NoError(t, tx.VerifySignatures())
}

func TestSignTransactionWithExtraSigner(t *testing.T) {
	owner := solana.NewWallet().PrivateKey
	mint := solana.NewWallet().PrivateKey
	w := NewMemoryWallet(owner)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewCreateAccountInstruction(1, 82, solana.TokenProgramID, owner.PublicKey(), mint.PublicKey()).Build(),
		},
		solana.Hash{2},
		solana.TransactionPayer(owner.PublicKey()),
	)
	require.NoError(t, err)

	assert.Error(t, w.SignTransaction(tx), "mint key is required")
	require.NoError(t, w.SignTransaction(tx, mint))
	assert.Len(t, tx.Signatures, 2)
	assert.NoError(t, tx.VerifySignatures())
}

func TestWipe(t *testing.T) {
	w := NewMemoryWallet(solana.NewWallet().PrivateKey)
	w.Wipe()
	assert.Equal(t, make([]byte, 64), []byte(w.privateKey))
}
