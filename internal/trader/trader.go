// Package trader runs the wallet commands: balance, token creation, buys,
// sells and bonding-curve lookups. Pricing and trade instructions come from
// the remote trade builder; this package only checks preconditions, signs,
// sends and reports.
package trader

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"pf-trader/database"
	"pf-trader/internal/client"
	"pf-trader/internal/tradeapi"
	"pf-trader/internal/wallet"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBuyFailed           = errors.New("buy failed")
	ErrSellFailed          = errors.New("sell failed")
	ErrInvalidAddress      = errors.New("invalid contract address")
)

// Chain is the RPC surface the trader needs.
type Chain interface {
	SOLBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (client.TokenAmount, error)
	AccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
	RentExempt(ctx context.Context, size uint64) (uint64, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Builder produces unsigned trade transactions.
type Builder interface {
	Build(ctx context.Context, req tradeapi.TradeRequest) (*solana.Transaction, error)
}

// Journal records what the trader did. *database.Store satisfies it, nil
// included.
type Journal interface {
	RecordTrade(ctx context.Context, t database.Trade) error
	RecordToken(ctx context.Context, t database.Token) error
}

// Options are the per-run trade parameters.
type Options struct {
	BuyLamports         uint64
	FeeReserveLamports  uint64
	SlippagePercent     float64
	PriorityFeeLamports uint64
	Pool                string
}

type Trader struct {
	wallet  wallet.Signer
	chain   Chain
	builder Builder
	journal Journal
	opts    Options
	out     io.Writer
}

func New(w wallet.Signer, chain Chain, builder Builder, journal Journal, opts Options, out io.Writer) *Trader {
	if journal == nil {
		journal = (*database.Store)(nil)
	}
	return &Trader{
		wallet:  w,
		chain:   chain,
		builder: builder,
		journal: journal,
		opts:    opts,
		out:     out,
	}
}

// ParseMint validates a contract address argument.
func ParseMint(addr string) (solana.PublicKey, error) {
	mint, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return mint, nil
}

func (t *Trader) printf(format string, args ...interface{}) {
	fmt.Fprintf(t.out, format, args...)
}

func (t *Trader) recordTrade(ctx context.Context, rec database.Trade) {
	if err := t.journal.RecordTrade(ctx, rec); err != nil {
		zap.L().Error("error recording trade", zap.String("signature", rec.Signature), zap.Error(err))
	}
}
