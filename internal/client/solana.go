package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrConfirmTimeout  = errors.New("transaction not confirmed before timeout")
)

// RPC is the subset of *rpc.Client the trader needs.
type RPC interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

var _ RPC = (*rpc.Client)(nil)

// TokenAmount is a raw SPL amount with its mint decimals.
type TokenAmount struct {
	Raw      uint64
	Decimals uint8
}

// SolanaClient wraps RPC calls with the commitment and confirmation policy
// of one command run.
type SolanaClient struct {
	rpcClient      RPC
	commitment     rpc.CommitmentType
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

func NewSolanaClient(rpcURL string, commitment rpc.CommitmentType, confirmTimeout time.Duration) *SolanaClient {
	return NewWithRPC(rpc.New(rpcURL), commitment, confirmTimeout)
}

func NewWithRPC(rpcClient RPC, commitment rpc.CommitmentType, confirmTimeout time.Duration) *SolanaClient {
	return &SolanaClient{
		rpcClient:      rpcClient,
		commitment:     commitment,
		confirmTimeout: confirmTimeout,
		pollInterval:   time.Second,
	}
}

// SetPollInterval changes how often SendAndConfirm asks for signature status.
func (c *SolanaClient) SetPollInterval(d time.Duration) {
	c.pollInterval = d
}

// SOLBalance returns the owner's balance in lamports.
func (c *SolanaClient) SOLBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	balance, err := c.rpcClient.GetBalance(ctx, owner, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	return balance.Value, nil
}

// TokenBalance returns the owner's holding of mint in its associated token
// account. A missing account is a zero balance.
func (c *SolanaClient) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (TokenAmount, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return TokenAmount{}, fmt.Errorf("failed to find associated token account address: %w", err)
	}

	balance, err := c.rpcClient.GetTokenAccountBalance(ctx, ata, c.commitment)
	if err != nil {
		if isAccountNotFoundError(err) {
			return TokenAmount{}, nil
		}
		return TokenAmount{}, fmt.Errorf("failed to get token account balance: %w", err)
	}
	if balance == nil || balance.Value == nil {
		return TokenAmount{}, nil
	}

	amount, err := strconv.ParseUint(balance.Value.Amount, 10, 64)
	if err != nil {
		return TokenAmount{}, fmt.Errorf("failed to parse token balance amount: %w", err)
	}
	return TokenAmount{Raw: amount, Decimals: balance.Value.Decimals}, nil
}

// AccountData returns the raw data of an account, or ErrAccountNotFound.
func (c *SolanaClient) AccountData(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	info, err := c.rpcClient.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if err != nil {
		if isAccountNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
		}
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}
	if info == nil || info.Value == nil || info.Value.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	return info.Value.Data.GetBinary(), nil
}

// RentExempt returns the minimum lamports for an account of size bytes.
func (c *SolanaClient) RentExempt(ctx context.Context, size uint64) (uint64, error) {
	lamports, err := c.rpcClient.GetMinimumBalanceForRentExemption(ctx, size, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get rent exemption: %w", err)
	}
	return lamports, nil
}

func (c *SolanaClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}
	if recent == nil || recent.Value == nil {
		return solana.Hash{}, errors.New("failed to get recent blockhash: empty response")
	}
	return recent.Value.Blockhash, nil
}

// SendAndConfirm submits a signed transaction with preflight and waits for
// it to reach the client's commitment. An on-chain failure is returned as an
// error together with the signature.
func (c *SolanaClient) SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	zap.L().Debug("transaction sent", zap.String("signature", sig.String()))

	return sig, c.waitForConfirmation(ctx, sig)
}

func (c *SolanaClient) waitForConfirmation(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		statuses, err := c.rpcClient.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			zap.L().Warn("signature status lookup failed", zap.String("signature", sig.String()), zap.Error(err))
		} else if statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed: %v", sig, status.Err)
			}
			if reached(status.ConfirmationStatus, c.commitment) {
				zap.L().Debug("transaction confirmed",
					zap.String("signature", sig.String()),
					zap.String("status", string(status.ConfirmationStatus)))
				return nil
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", ErrConfirmTimeout, sig)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func reached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	rank := map[string]int{
		string(rpc.ConfirmationStatusProcessed): 1,
		string(rpc.ConfirmationStatusConfirmed): 2,
		string(rpc.ConfirmationStatusFinalized): 3,
	}
	return rank[string(status)] > 0 && rank[string(status)] >= rank[string(want)]
}

// isAccountNotFoundError matches the JSON-RPC error nodes return for
// accounts that do not exist.
func isAccountNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, rpc.ErrNotFound) || strings.Contains(err.Error(), "could not find account")
}
