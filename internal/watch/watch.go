// Package watch streams pump.fun activity for one mint from a Yellowstone
// gRPC endpoint.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"

	converter "github.com/dzhisl/geyser-converter/utils"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"go.uber.org/zap"

	"pf-trader/database"
	"pf-trader/internal/common"
	geyserAdapter "pf-trader/internal/grpc-adapter"
	"pf-trader/internal/parser"
)

const swapBatchSize = 50

var ErrNoEndpoint = errors.New("GRPC_ENDPOINT is not set")

type updateStream interface {
	Recv() (*pb.SubscribeUpdate, error)
}

type Watcher struct {
	adapter geyserAdapter.GeyserUtils
	store   *database.Store
	out     io.Writer
	batch   []parser.TradeEvent
}

// New returns a watcher. store may be nil.
func New(adapter geyserAdapter.GeyserUtils, store *database.Store, out io.Writer) *Watcher {
	return &Watcher{adapter: adapter, store: store, out: out}
}

// Run subscribes to transactions touching mint and prints its trades until
// ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, endpoint string, mint solana.PublicKey) error {
	if endpoint == "" {
		return ErrNoEndpoint
	}
	conn, err := w.adapter.CreateGRPCConnection(endpoint)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close()

	stream, err := pb.NewGeyserClient(conn).Subscribe(w.adapter.WithAuth(ctx))
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	if err := stream.Send(w.adapter.CreateSubscriptionRequest(mint.String())); err != nil {
		return fmt.Errorf("subscription failed: %w", err)
	}

	zap.L().Info("monitoring transactions", zap.String("mint", mint.String()))
	fmt.Fprintf(w.out, "Watching %s\n", mint)
	return w.consume(ctx, stream, mint)
}

func (w *Watcher) consume(ctx context.Context, stream updateStream, mint solana.PublicKey) error {
	defer w.flush(context.WithoutCancel(ctx))

	for {
		update, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}
		w.processUpdate(ctx, update, mint)
	}
}

func (w *Watcher) processUpdate(ctx context.Context, update *pb.SubscribeUpdate, mint solana.PublicKey) {
	tx := update.GetTransaction()
	if tx == nil {
		return
	}
	signature := tx.GetTransaction().GetSignature()
	if signature == nil {
		return
	}

	sigStr := base58.Encode(signature)
	txDetails, err := converter.ProcessTransactionToStruct(tx, sigStr)
	if err != nil {
		zap.L().Error("error processing tx details", zap.String("signature", sigStr), zap.Error(err))
		return
	}
	w.handleEvents(ctx, parser.ParseTransaction(txDetails), mint)
}

func (w *Watcher) handleEvents(ctx context.Context, events parser.Events, mint solana.PublicKey) {
	for _, create := range events.Creates {
		if create.MintAddress != mint {
			continue
		}
		fmt.Fprintln(w.out, formatCreate(create))
	}

	for _, trade := range events.Trades {
		if trade.Mint != mint {
			continue
		}
		fmt.Fprintln(w.out, formatTrade(trade))

		if err := w.store.AddOrUpdatePool(ctx, trade); err != nil {
			zap.L().Error("error adding pool to DB", zap.String("mint", mint.String()), zap.Error(err))
		}
		w.batch = append(w.batch, trade)
		if len(w.batch) >= swapBatchSize {
			w.flush(ctx)
		}
	}
}

func (w *Watcher) flush(ctx context.Context) {
	if len(w.batch) == 0 {
		return
	}
	if err := w.store.AddSwapsBatch(ctx, w.batch); err != nil {
		zap.L().Error("error adding swaps batch to DB", zap.Error(err))
	} else {
		zap.L().Debug("added swaps batch to DB", zap.Int("batch_size", len(w.batch)))
	}
	w.batch = w.batch[:0]
}

func formatTrade(ev parser.TradeEvent) string {
	side := "SELL"
	if ev.IsBuy {
		side = "BUY "
	}
	return fmt.Sprintf("%s %s SOL  %s tokens  user %s  sig %s",
		side,
		common.LamportsToSOL(ev.SolAmount),
		common.FormatUnits(ev.TokenAmount, common.TokenDecimals),
		ev.User,
		ev.Signature,
	)
}

func formatCreate(ev parser.CreateEvent) string {
	return fmt.Sprintf("CREATE %s (%s) by %s  curve %s  sig %s",
		ev.Name, ev.Symbol, ev.Creator, ev.BondingCurve, ev.Signature)
}
