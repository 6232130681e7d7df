package trader

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	"pf-trader/database"
	"pf-trader/internal/common"
)

const mintAccountSize = 82

// CreatedToken describes a mint made by CreateToken.
type CreatedToken struct {
	Mint         solana.PublicKey
	TokenAccount solana.PublicKey
	Signature    solana.Signature
}

// CreateToken creates a new SPL mint owned by the wallet together with the
// wallet's associated token account, and mints supply into it when supply is
// non-zero. The wallet is both mint and freeze authority.
func (t *Trader) CreateToken(ctx context.Context, decimals uint8, supply uint64) (*CreatedToken, error) {
	owner := t.wallet.PublicKey()
	mintKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate mint key: %w", err)
	}
	defer clear(mintKey)
	mint := mintKey.PublicKey()

	tokenAccount, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to find associated token account address: %w", err)
	}

	rent, err := t.chain.RentExempt(ctx, mintAccountSize)
	if err != nil {
		return nil, err
	}

	instructions := []solana.Instruction{
		system.NewCreateAccountInstruction(rent, mintAccountSize, solana.TokenProgramID, owner, mint).Build(),
		token.NewInitializeMintInstruction(decimals, owner, owner, mint, solana.SysVarRentPubkey).Build(),
		associatedtokenaccount.NewCreateInstruction(owner, owner, mint).Build(),
	}
	if supply > 0 {
		instructions = append(instructions,
			token.NewMintToInstruction(supply, mint, tokenAccount, owner, []solana.PublicKey{}).Build())
	}

	blockhash, err := t.chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if err := t.wallet.SignTransaction(tx, mintKey); err != nil {
		return nil, err
	}

	zap.L().Info("creating token", zap.String("mint", mint.String()), zap.Uint8("decimals", decimals))
	sig, err := t.chain.SendAndConfirm(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to create token %s: %w", mint, err)
	}

	if err := t.journal.RecordToken(ctx, database.Token{
		Mint:         mint.String(),
		TokenAccount: tokenAccount.String(),
		Authority:    owner.String(),
		Decimals:     decimals,
		Supply:       supply,
		Signature:    sig.String(),
	}); err != nil {
		zap.L().Error("error recording token", zap.String("mint", mint.String()), zap.Error(err))
	}

	t.printf("Created mint: %s\n", mint)
	t.printf("Token account: %s\n", tokenAccount)
	if supply > 0 {
		t.printf("Minted: %s\n", common.FormatUnits(supply, int(decimals)))
	}
	t.printf("Signature: %s\n", sig)

	return &CreatedToken{Mint: mint, TokenAccount: tokenAccount, Signature: sig}, nil
}
