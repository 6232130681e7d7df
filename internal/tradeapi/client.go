// Package tradeapi talks to a remote pump.fun trade builder (PumpPortal's
// trade-local endpoint). The builder owns bonding-curve pricing, slippage and
// instruction layout; it answers with an unsigned serialized transaction.
package tradeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	ActionBuy  = "buy"
	ActionSell = "sell"

	maxErrorBody = 512
)

// TradeRequest is the body of a trade-local call. Amount is either SOL
// (DenominatedInSol "true") or tokens in UI units.
type TradeRequest struct {
	PublicKey        string  `json:"publicKey"`
	Action           string  `json:"action"`
	Mint             string  `json:"mint"`
	Amount           string  `json:"amount"`
	DenominatedInSol string  `json:"denominatedInSol"`
	Slippage         float64 `json:"slippage"`    // percent
	PriorityFee      float64 `json:"priorityFee"` // SOL
	Pool             string  `json:"pool,omitempty"`
}

// LamportsToSOL converts a lamport amount to the SOL number the builder
// expects in PriorityFee.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / 1e9
}

// Client builds trade transactions through the remote builder.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Build asks the builder for a transaction and decodes it. The returned
// transaction still needs the wallet's signature.
func (c *Client) Build(ctx context.Context, req TradeRequest) (*solana.Transaction, error) {
	if req.Action != ActionBuy && req.Action != ActionSell {
		return nil, fmt.Errorf("unknown trade action %q", req.Action)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trade request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create trade request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("trade request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read trade response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(payload))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, fmt.Errorf("trade builder returned status %d: %s", resp.StatusCode, msg)
	}
	if len(payload) == 0 {
		return nil, errors.New("trade builder returned an empty transaction")
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to decode trade transaction: %w", err)
	}
	return tx, nil
}
