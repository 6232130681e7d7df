package utils

import (
	"github.com/gagliardetto/solana-go"

	"pf-trader/internal/parser"
)

// GetPumpTokenAccounts derives the bonding-curve PDA of a pump.fun mint and
// the curve's associated token account.
func GetPumpTokenAccounts(tokenMint solana.PublicKey) (bondingCurve, associatedBondingCurve *solana.PublicKey, err error) {
	seeds := [][]byte{
		[]byte("bonding-curve"),
		tokenMint.Bytes(),
	}
	bondingCurveAddress, _, err := solana.FindProgramAddress(seeds, parser.PumpProgramID)
	if err != nil {
		return nil, nil, err
	}

	associatedBCurve, _, err := solana.FindAssociatedTokenAddress(bondingCurveAddress, tokenMint)
	if err != nil {
		return nil, nil, err
	}
	return &bondingCurveAddress, &associatedBCurve, nil
}
