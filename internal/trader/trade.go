package trader

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"pf-trader/database"
	"pf-trader/internal/common"
	"pf-trader/internal/tradeapi"
)

// Buy spends the configured SOL amount on mint. The wallet must hold the
// amount plus the fee reserve.
func (t *Trader) Buy(ctx context.Context, mint solana.PublicKey) error {
	owner := t.wallet.PublicKey()

	balance, err := t.chain.SOLBalance(ctx, owner)
	if err != nil {
		return err
	}
	need := t.opts.BuyLamports + t.opts.FeeReserveLamports
	if balance < need {
		return fmt.Errorf("%w: have %s SOL, need %s SOL", ErrInsufficientBalance,
			common.LamportsToSOL(balance), common.LamportsToSOL(need))
	}

	amount := common.LamportsToSOL(t.opts.BuyLamports)
	zap.L().Info("buying", zap.String("mint", mint.String()), zap.String("sol", amount))

	sig, err := t.trade(ctx, tradeapi.TradeRequest{
		PublicKey:        owner.String(),
		Action:           tradeapi.ActionBuy,
		Mint:             mint.String(),
		Amount:           amount,
		DenominatedInSol: "true",
	})
	rec := database.Trade{
		Wallet:    owner.String(),
		Mint:      mint.String(),
		Side:      tradeapi.ActionBuy,
		SolAmount: amount,
		Success:   err == nil,
		Signature: signatureString(sig),
	}
	if err != nil {
		rec.Error = err.Error()
		t.recordTrade(ctx, rec)
		return fmt.Errorf("%w: %v", ErrBuyFailed, err)
	}
	t.recordTrade(ctx, rec)

	t.printf("Buy signature: %s\n", sig)
	t.reportSPL(ctx, mint, "")
	t.reportCurve(ctx, mint, "Bonding curve after buy")
	return nil
}

// Sell sells the wallet's whole holding of mint. An empty holding is
// reported and nothing is sent.
func (t *Trader) Sell(ctx context.Context, mint solana.PublicKey) error {
	owner := t.wallet.PublicKey()

	holding, err := t.chain.TokenBalance(ctx, owner, mint)
	if err != nil {
		return err
	}
	amount := common.FormatUnits(holding.Raw, int(holding.Decimals))
	t.printf("currentSPLBalance %s\n", amount)
	if holding.Raw == 0 {
		t.printf("Nothing to sell for %s\n", mint)
		return nil
	}

	zap.L().Info("selling", zap.String("mint", mint.String()), zap.String("tokens", amount))

	sig, err := t.trade(ctx, tradeapi.TradeRequest{
		PublicKey:        owner.String(),
		Action:           tradeapi.ActionSell,
		Mint:             mint.String(),
		Amount:           amount,
		DenominatedInSol: "false",
	})
	rec := database.Trade{
		Wallet:      owner.String(),
		Mint:        mint.String(),
		Side:        tradeapi.ActionSell,
		TokenAmount: amount,
		Success:     err == nil,
		Signature:   signatureString(sig),
	}
	if err != nil {
		rec.Error = err.Error()
		t.recordTrade(ctx, rec)
		return fmt.Errorf("%w: %v", ErrSellFailed, err)
	}
	t.recordTrade(ctx, rec)

	t.printf("Sell signature: %s\n", sig)
	t.reportSOL(ctx, "Wallet")
	t.reportSPL(ctx, mint, "After SPL sell all")
	t.reportCurve(ctx, mint, "Bonding curve after sell")
	return nil
}

// trade fills in the shared request fields, then builds, signs, sends and
// confirms. The signature is returned whenever the transaction was sent.
func (t *Trader) trade(ctx context.Context, req tradeapi.TradeRequest) (solana.Signature, error) {
	req.Slippage = t.opts.SlippagePercent
	req.PriorityFee = tradeapi.LamportsToSOL(t.opts.PriorityFeeLamports)
	req.Pool = t.opts.Pool

	tx, err := t.builder.Build(ctx, req)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := t.wallet.SignTransaction(tx); err != nil {
		return solana.Signature{}, err
	}
	return t.chain.SendAndConfirm(ctx, tx)
}

func signatureString(sig solana.Signature) string {
	if sig == (solana.Signature{}) {
		return ""
	}
	return sig.String()
}
