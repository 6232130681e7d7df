package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"pf-trader/internal/common"
)

// Config contains every tunable of the trader. Values come from the
// environment, optionally seeded from a .env file.
type Config struct {
	PrivateKey  string `envconfig:"PRIVATE_KEY"`
	RPCURL      string `envconfig:"RPC_URL" default:"https://api.mainnet-beta.solana.com"`
	Commitment  string `envconfig:"COMMITMENT" default:"finalized"`
	TradeAPIURL string `envconfig:"TRADE_API_URL" default:"https://pumpportal.fun/api/trade-local"`
	Pool        string `envconfig:"POOL" default:"pump"`

	BuyAmountSOL     string        `envconfig:"BUY_AMOUNT_SOL" default:"0.0001"`
	SlippageBps      uint32        `envconfig:"SLIPPAGE_BPS" default:"100"`
	ComputeUnitLimit uint32        `envconfig:"COMPUTE_UNIT_LIMIT" default:"250000"`
	ComputeUnitPrice uint64        `envconfig:"COMPUTE_UNIT_PRICE" default:"250000"` // micro-lamports per unit
	FeeReserveSOL    string        `envconfig:"FEE_RESERVE_SOL" default:"0.001"`
	ConfirmTimeout   time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"90s"`

	DatabaseURL  string `envconfig:"DATABASE_URL"`
	GRPCEndpoint string `envconfig:"GRPC_ENDPOINT"`
	GRPCToken    string `envconfig:"GRPC_TOKEN"`
}

// LoadDotEnv copies an optional .env file from the working directory into
// the environment. Variables already set win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load reads an optional .env file from the working directory and then
// processes the environment into a validated Config.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return errors.New("RPC_URL is required")
	}
	if _, err := c.CommitmentType(); err != nil {
		return err
	}
	if c.TradeAPIURL == "" {
		return errors.New("TRADE_API_URL is required")
	}
	if c.ComputeUnitLimit == 0 {
		return errors.New("COMPUTE_UNIT_LIMIT must be greater than 0")
	}
	if c.SlippageBps > 10_000 {
		return fmt.Errorf("SLIPPAGE_BPS must be at most 10000, got %d", c.SlippageBps)
	}
	if c.ConfirmTimeout <= 0 {
		return errors.New("CONFIRM_TIMEOUT must be positive")
	}
	if _, err := c.BuyLamports(); err != nil {
		return fmt.Errorf("BUY_AMOUNT_SOL: %w", err)
	}
	if _, err := c.FeeReserveLamports(); err != nil {
		return fmt.Errorf("FEE_RESERVE_SOL: %w", err)
	}
	return nil
}

// CommitmentType maps COMMITMENT to the rpc commitment level.
func (c *Config) CommitmentType() (rpc.CommitmentType, error) {
	switch rpc.CommitmentType(c.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return rpc.CommitmentType(c.Commitment), nil
	}
	return "", fmt.Errorf("COMMITMENT must be processed, confirmed or finalized, got %q", c.Commitment)
}

func (c *Config) BuyLamports() (uint64, error) {
	n, err := common.SOLToLamports(c.BuyAmountSOL)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: buy amount must be greater than 0", common.ErrInvalidAmount)
	}
	return n, nil
}

func (c *Config) FeeReserveLamports() (uint64, error) {
	return common.SOLToLamports(c.FeeReserveSOL)
}

// PriorityFeeLamports is the compute-unit limit times price.
func (c *Config) PriorityFeeLamports() uint64 {
	return common.PriorityFeeLamports(c.ComputeUnitLimit, c.ComputeUnitPrice)
}

// SlippagePercent converts basis points to the percent value the trade
// builder expects.
func (c *Config) SlippagePercent() float64 {
	return float64(c.SlippageBps) / 100
}
