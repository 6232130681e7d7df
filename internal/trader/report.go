package trader

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"pf-trader/internal/common"
	"pf-trader/internal/parser"
	"pf-trader/internal/utils"
)

// Balance prints the wallet's SOL balance.
func (t *Trader) Balance(ctx context.Context) error {
	lamports, err := t.chain.SOLBalance(ctx, t.wallet.PublicKey())
	if err != nil {
		return err
	}
	t.printf("Wallet %s: %s SOL\n", t.wallet.PublicKey(), common.LamportsToSOL(lamports))
	return nil
}

// BondingCurve fetches and decodes the curve account of mint.
func (t *Trader) BondingCurve(ctx context.Context, mint solana.PublicKey) (*parser.BondingCurve, solana.PublicKey, error) {
	curveAddr, _, err := utils.GetPumpTokenAccounts(mint)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("failed to derive bonding curve: %w", err)
	}
	data, err := t.chain.AccountData(ctx, *curveAddr)
	if err != nil {
		return nil, *curveAddr, err
	}
	curve, err := parser.DecodeBondingCurve(data)
	if err != nil {
		return nil, *curveAddr, err
	}
	return curve, *curveAddr, nil
}

// Curve prints the bonding-curve state of mint.
func (t *Trader) Curve(ctx context.Context, mint solana.PublicKey) error {
	curve, addr, err := t.BondingCurve(ctx, mint)
	if err != nil {
		return err
	}
	t.printCurve("Bonding curve", addr, curve)
	return nil
}

func (t *Trader) printCurve(title string, addr solana.PublicKey, curve *parser.BondingCurve) {
	t.printf("%s %s:\n", title, addr)
	t.printf("  VirtualTokenReserves: %s\n", common.FormatUnits(curve.VirtualTokenReserves, common.TokenDecimals))
	t.printf("  VirtualSolReserves:   %s SOL\n", common.LamportsToSOL(curve.VirtualSolReserves))
	t.printf("  RealTokenReserves:    %s\n", common.FormatUnits(curve.RealTokenReserves, common.TokenDecimals))
	t.printf("  RealSolReserves:      %s SOL\n", common.LamportsToSOL(curve.RealSolReserves))
	t.printf("  TokenTotalSupply:     %s\n", common.FormatUnits(curve.TokenTotalSupply, common.TokenDecimals))
	t.printf("  Complete:             %v\n", curve.Complete)
	if !curve.Creator.IsZero() {
		t.printf("  Creator:              %s\n", curve.Creator)
	}
}

// The post-trade reports below are best effort: the trade already landed,
// so lookup failures are logged instead of returned.

func (t *Trader) reportSOL(ctx context.Context, label string) {
	lamports, err := t.chain.SOLBalance(ctx, t.wallet.PublicKey())
	if err != nil {
		zap.L().Warn("error reading SOL balance", zap.Error(err))
		return
	}
	t.printf("%s SOL balance: %s\n", label, common.LamportsToSOL(lamports))
}

func (t *Trader) reportSPL(ctx context.Context, mint solana.PublicKey, label string) {
	holding, err := t.chain.TokenBalance(ctx, t.wallet.PublicKey(), mint)
	if err != nil {
		zap.L().Warn("error reading SPL balance", zap.String("mint", mint.String()), zap.Error(err))
		return
	}
	amount := common.FormatUnits(holding.Raw, int(holding.Decimals))
	if label == "" {
		t.printf("SPL balance: %s\n", amount)
		return
	}
	t.printf("%s SPL balance: %s\n", label, amount)
}

func (t *Trader) reportCurve(ctx context.Context, mint solana.PublicKey, title string) {
	curve, addr, err := t.BondingCurve(ctx, mint)
	if err != nil {
		zap.L().Warn("error reading bonding curve", zap.String("mint", mint.String()), zap.Error(err))
		return
	}
	t.printCurve(title, addr, curve)
}
