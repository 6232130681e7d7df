package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"pf-trader/internal/logger"
)

// chdirTemp moves the test into an empty directory so a developer's .env
// does not leak into the assertions.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PRIVATE_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.RPCURL)
	assert.Equal(t, "https://pumpportal.fun/api/trade-local", cfg.TradeAPIURL)
	assert.Equal(t, uint32(100), cfg.SlippageBps)
	assert.Equal(t, 1.0, cfg.SlippagePercent())
	assert.Equal(t, 90*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, uint64(62_500), cfg.PriorityFeeLamports())

	commitment, err := cfg.CommitmentType()
	require.NoError(t, err)
	assert.Equal(t, rpc.CommitmentFinalized, commitment)

	lamports, err := cfg.BuyLamports()
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000), lamports)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	// godotenv never overrides variables that are already set, so make sure
	// these are unset for the duration of the test.
	t.Setenv("RPC_URL", "")
	require.NoError(t, os.Unsetenv("RPC_URL"))
	t.Setenv("BUY_AMOUNT_SOL", "")
	require.NoError(t, os.Unsetenv("BUY_AMOUNT_SOL"))

	env := "RPC_URL=http://localhost:8899\nBUY_AMOUNT_SOL=0.25\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8899", cfg.RPCURL)

	lamports, err := cfg.BuyLamports()
	require.NoError(t, err)
	assert.Equal(t, uint64(250_000_000), lamports)
}

func TestLoadDotEnvBeforeLogger(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, LoadDotEnv())

	t.Setenv("LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\n"), 0o600))

	require.NoError(t, LoadDotEnv())
	assert.Equal(t, zapcore.DebugLevel, logger.ParseLevel(os.Getenv("LOG_LEVEL")))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			RPCURL:           "http://localhost:8899",
			Commitment:       "confirmed",
			TradeAPIURL:      "http://localhost/trade",
			BuyAmountSOL:     "0.01",
			FeeReserveSOL:    "0",
			SlippageBps:      500,
			ComputeUnitLimit: 1,
			ConfirmTimeout:   time.Second,
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"commitment":   func(c *Config) { c.Commitment = "max" },
		"slippage":     func(c *Config) { c.SlippageBps = 10_001 },
		"unit limit":   func(c *Config) { c.ComputeUnitLimit = 0 },
		"buy amount":   func(c *Config) { c.BuyAmountSOL = "lots" },
		"zero buy":     func(c *Config) { c.BuyAmountSOL = "0" },
		"fee reserve":  func(c *Config) { c.FeeReserveSOL = "-1" },
		"rpc url":      func(c *Config) { c.RPCURL = "" },
		"trade api":    func(c *Config) { c.TradeAPIURL = "" },
		"zero timeout": func(c *Config) { c.ConfirmTimeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
