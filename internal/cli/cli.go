// Package cli wires configuration, wallet, RPC client, trade builder and
// journal into the trader commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pf-trader/database"
	"pf-trader/internal/client"
	"pf-trader/internal/common"
	"pf-trader/internal/config"
	geyserAdapter "pf-trader/internal/grpc-adapter"
	"pf-trader/internal/tradeapi"
	"pf-trader/internal/trader"
	"pf-trader/internal/wallet"
	"pf-trader/internal/watch"
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// Execute runs the command line in args, writing results and usage to out.
// Errors are returned unprinted.
func Execute(ctx context.Context, args []string, out io.Writer) error {
	root := NewRootCmd(out)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func NewRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "pf-trader",
		Short: "Trade tokens on the pump.fun bonding curve",
		Long: `pf-trader buys and sells pump.fun tokens from the wallet in PRIVATE_KEY.
Settings come from the environment or a .env file in the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	root.SetOut(out)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	root.AddCommand(
		balanceCmd(),
		createTokenCmd(),
		tradeCmd("buy", "Buy BUY_AMOUNT_SOL worth of a token", (*trader.Trader).Buy),
		tradeCmd("sell", "Sell the wallet's whole holding of a token", (*trader.Trader).Sell),
		tradeCmd("curve", "Print the bonding-curve state of a token", (*trader.Trader).Curve),
		watchCmd(),
	)
	return root
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(fmt.Errorf("%w\nUsage: %s", err, cmd.UseLine()))
		}
		return nil
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Print the wallet's SOL balance",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTrader(cmd, func(ctx context.Context, t *trader.Trader) error {
				return t.Balance(ctx)
			})
		},
	}
}

func createTokenCmd() *cobra.Command {
	var (
		decimals uint8
		supply   string
	)
	cmd := &cobra.Command{
		Use:   "create-token",
		Short: "Create an SPL mint and the wallet's token account for it",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var raw uint64
			if supply != "" {
				n, err := common.ParseUnits(supply, int(decimals))
				if err != nil {
					return usageError(fmt.Errorf("--supply: %w", err))
				}
				raw = n
			}
			return withTrader(cmd, func(ctx context.Context, t *trader.Trader) error {
				_, err := t.CreateToken(ctx, decimals, raw)
				return err
			})
		},
	}
	cmd.Flags().Uint8Var(&decimals, "decimals", common.TokenDecimals, "decimal places of the new mint")
	cmd.Flags().StringVar(&supply, "supply", "", "amount to mint into the wallet, in whole tokens")
	return cmd
}

func tradeCmd(name, short string, run func(*trader.Trader, context.Context, solana.PublicKey) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <contract_address>",
		Short: short,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := trader.ParseMint(args[0])
			if err != nil {
				return err
			}
			return withTrader(cmd, func(ctx context.Context, t *trader.Trader) error {
				return run(t, ctx, mint)
			})
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <contract_address>",
		Short: "Stream live pump.fun trades of a token from a Geyser endpoint",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mint, err := trader.ParseMint(args[0])
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			w := watch.New(geyserAdapter.NewGeyserAdapter(cfg.GRPCToken), store, cmd.OutOrStdout())
			return w.Run(cmd.Context(), cfg.GRPCEndpoint, mint)
		},
	}
}

// withTrader builds a Trader from the environment, runs fn and releases the
// wallet key and journal afterwards.
func withTrader(cmd *cobra.Command, fn func(context.Context, *trader.Trader) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	w, err := wallet.FromBase58(cfg.PrivateKey)
	if err != nil {
		return err
	}
	defer w.Wipe()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := tradeOptions(cfg)
	if err != nil {
		return err
	}
	commitment, err := cfg.CommitmentType()
	if err != nil {
		return err
	}

	chain := client.NewSolanaClient(cfg.RPCURL, commitment, cfg.ConfirmTimeout)
	t := trader.New(w, chain, tradeapi.NewClient(cfg.TradeAPIURL), store, opts, cmd.OutOrStdout())
	zap.L().Debug("trader ready", zap.String("wallet", w.PublicKey().String()), zap.String("rpc", cfg.RPCURL))
	return fn(cmd.Context(), t)
}

func tradeOptions(cfg *config.Config) (trader.Options, error) {
	buy, err := cfg.BuyLamports()
	if err != nil {
		return trader.Options{}, err
	}
	reserve, err := cfg.FeeReserveLamports()
	if err != nil {
		return trader.Options{}, err
	}
	return trader.Options{
		BuyLamports:         buy,
		FeeReserveLamports:  reserve,
		SlippagePercent:     cfg.SlippagePercent(),
		PriorityFeeLamports: cfg.PriorityFeeLamports(),
		Pool:                cfg.Pool,
	}, nil
}

// openStore returns a nil store, which journals nothing, when no DSN is set.
func openStore(cfg *config.Config) (*database.Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	store, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
