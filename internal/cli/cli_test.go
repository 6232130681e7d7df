package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pf-trader/internal/trader"
	"pf-trader/internal/wallet"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Execute(context.Background(), args, &out)
	return out.String(), err
}

// inTempDir keeps a developer's .env out of the test.
func inTempDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestNoArgumentsPrintsUsage(t *testing.T) {
	out, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	for _, name := range []string{"balance", "create-token", "buy", "sell", "curve", "watch"} {
		assert.Contains(t, out, name)
	}
}

func TestInvalidAddressIsRejectedBeforeConfig(t *testing.T) {
	for _, name := range []string{"buy", "sell", "curve", "watch"} {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, name, "0xdeadbeef")
			require.ErrorIs(t, err, trader.ErrInvalidAddress)
			assert.Equal(t, 1, ExitCode(err))
		})
	}
}

func TestWrongArgumentCount(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"buy without address", []string{"buy"}},
		{"sell with two addresses", []string{"sell", "a", "b"}},
		{"balance with argument", []string{"balance", "x"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, tc.args...)
			require.Error(t, err)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, "Usage:")
		})
	}
}

func TestUnknownFlag(t *testing.T) {
	_, err := run(t, "balance", "--bogus")
	assert.Equal(t, 2, ExitCode(err))
}

func TestBadSupply(t *testing.T) {
	_, err := run(t, "create-token", "--supply", "12abc")
	assert.Equal(t, 2, ExitCode(err))
}

func TestBalanceNeedsPrivateKey(t *testing.T) {
	inTempDir(t)
	t.Setenv("PRIVATE_KEY", "")

	_, err := run(t, "balance")
	assert.ErrorIs(t, err, wallet.ErrMissingKey)
	assert.Equal(t, 1, ExitCode(err))
}

func TestWatchNeedsEndpoint(t *testing.T) {
	inTempDir(t)
	t.Setenv("GRPC_ENDPOINT", "")
	t.Setenv("DATABASE_URL", "")

	_, err := run(t, "watch", "5HV956n7UQT1XdJzv43fHPocest5YAmi9ipsuiJx7zt7")
	assert.ErrorContains(t, err, "GRPC_ENDPOINT")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 3, ExitCode(&ExitError{Code: 3}))
	assert.Equal(t, 1, ExitCode(assert.AnError))
}
