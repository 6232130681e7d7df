package utils

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pf-trader/internal/parser"
)

func TestGetPumpTokenAccounts(t *testing.T) {
	mint := solana.MustPublicKeyFromBase58("5HV956n7UQT1XdJzv43fHPocest5YAmi9ipsuiJx7zt7")

	curve, ata, err := GetPumpTokenAccounts(mint)
	require.NoError(t, err)

	want, _, err := solana.FindProgramAddress([][]byte{[]byte("bonding-curve"), mint[:]}, parser.PumpProgramID)
	require.NoError(t, err)
	assert.Equal(t, want, *curve)

	wantATA, _, err := solana.FindAssociatedTokenAddress(want, mint)
	require.NoError(t, err)
	assert.Equal(t, wantATA, *ata)

	// Derivation is deterministic and mint-specific.
	other, _, err := GetPumpTokenAccounts(solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.NotEqual(t, *curve, *other)
}
