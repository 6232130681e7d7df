package parser

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/dzhisl/geyser-converter/shared"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const (
	PumpProgram      = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	selfCPIAuthority = "Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1"
)

var (
	PumpProgramID = solana.MustPublicKeyFromBase58(PumpProgram)

	// Anchor's event-CPI instruction tag, followed by the event discriminator.
	eventCPITag        = []byte{0xe4, 0x45, 0xa5, 0x2e, 0x51, 0xcb, 0x9a, 0x1d}
	tradeEventDisc     = []byte{189, 219, 127, 211, 78, 230, 97, 238}
	createEventDisc    = []byte{27, 114, 169, 77, 222, 235, 99, 118}
	bondingCurveDisc   = []byte{23, 183, 248, 55, 96, 216, 172, 96}
	ErrUnknownEvent    = errors.New("unknown pump.fun event")
	ErrNotBondingCurve = errors.New("account is not a pump.fun bonding curve")
)

type TradeEvent struct {
	Discriminator        [16]byte
	Mint                 solana.PublicKey
	SolAmount            uint64
	TokenAmount          uint64
	IsBuy                bool
	User                 solana.PublicKey
	Timestamp            int64
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	Signature            string `borsh_skip:"true" json:"signature"`
}

type CreateEvent struct {
	Discriminator [16]byte         `json:"-"`
	Name          string           `json:"name"`
	Symbol        string           `json:"symbol"`
	Uri           string           `json:"uri"`
	MintAddress   solana.PublicKey `json:"mint"`
	BondingCurve  solana.PublicKey `json:"bondingCurve"`
	Creator       solana.PublicKey `json:"user"`
	Signature     string           `borsh_skip:"true" json:"signature"`
	CreatedAt     time.Time        `borsh_skip:"true"`
}

func (m *TradeEvent) Decode(data []byte) error {
	return bin.NewBorshDecoder(data).Decode(m)
}

func (m *CreateEvent) Decode(data []byte) error {
	return bin.NewBorshDecoder(data).Decode(m)
}

// Events holds the pump.fun events found in one transaction.
type Events struct {
	Trades  []TradeEvent
	Creates []CreateEvent
}

// DecodeEvent decodes the data of a self-CPI log instruction. Exactly one of
// the returned events is non-nil on success.
func DecodeEvent(data []byte) (*TradeEvent, *CreateEvent, error) {
	if len(data) < 16 || !bytes.Equal(data[:8], eventCPITag) {
		return nil, nil, ErrUnknownEvent
	}
	switch {
	case bytes.Equal(data[8:16], tradeEventDisc):
		var ev TradeEvent
		if err := ev.Decode(data); err != nil {
			return nil, nil, fmt.Errorf("error decoding trade event: %w", err)
		}
		return &ev, nil, nil
	case bytes.Equal(data[8:16], createEventDisc):
		var ev CreateEvent
		if err := ev.Decode(data); err != nil {
			return nil, nil, fmt.Errorf("error decoding create token event: %w", err)
		}
		return nil, &ev, nil
	}
	return nil, nil, ErrUnknownEvent
}

// ParseTransaction collects the trade and create events that the pump.fun
// program logged through self-CPI in txDetails.
func ParseTransaction(txDetails *shared.TransactionDetails) Events {
	var out Events
	for _, inst := range txDetails.Instructions {
		for _, innerInst := range inst.InnerInstructions {
			if innerInst.ProgramID.PublicKey != PumpProgram {
				continue
			}
			if len(innerInst.Accounts) != 1 || innerInst.Accounts[0].PublicKey != selfCPIAuthority {
				continue
			}

			trade, create, err := DecodeEvent(innerInst.Data)
			switch {
			case errors.Is(err, ErrUnknownEvent):
				continue
			case err != nil:
				zap.L().Error("error parsing pump.fun event", zap.String("signature", txDetails.Signature), zap.Error(err))
			case trade != nil:
				trade.Signature = txDetails.Signature
				out.Trades = append(out.Trades, *trade)
			case create != nil:
				zap.L().Debug("token create tx", zap.String("signature", txDetails.Signature))
				create.Signature = txDetails.Signature
				create.CreatedAt = time.Now()
				out.Creates = append(out.Creates, *create)
			}
		}
	}
	return out
}

// BondingCurve is the state of a pump.fun bonding-curve account.
type BondingCurve struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
	// Creator is zero on curves created before creator fees existed.
	Creator solana.PublicKey
}

type bondingCurveLayout struct {
	Discriminator        [8]byte
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
}

const bondingCurveBaseSize = 8 + 5*8 + 1

// DecodeBondingCurve decodes raw bonding-curve account data.
func DecodeBondingCurve(data []byte) (*BondingCurve, error) {
	if len(data) < bondingCurveBaseSize || !bytes.Equal(data[:8], bondingCurveDisc) {
		return nil, ErrNotBondingCurve
	}
	var layout bondingCurveLayout
	if err := bin.NewBorshDecoder(data).Decode(&layout); err != nil {
		return nil, fmt.Errorf("error decoding bonding curve: %w", err)
	}
	curve := &BondingCurve{
		VirtualTokenReserves: layout.VirtualTokenReserves,
		VirtualSolReserves:   layout.VirtualSolReserves,
		RealTokenReserves:    layout.RealTokenReserves,
		RealSolReserves:      layout.RealSolReserves,
		TokenTotalSupply:     layout.TokenTotalSupply,
		Complete:             layout.Complete,
	}
	if len(data) >= bondingCurveBaseSize+solana.PublicKeyLength {
		curve.Creator = solana.PublicKeyFromBytes(data[bondingCurveBaseSize : bondingCurveBaseSize+solana.PublicKeyLength])
	}
	return curve, nil
}
