package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mr-tron/base58"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"pf-trader/internal/parser"
	"pf-trader/internal/utils"
)

const (
	maxIdleConns       = 5
	maxOpenConns       = 10
	connMaxLifetime    = time.Hour
	slowQueryThreshold = 2000 * time.Millisecond
)

// Trade is a buy or sell sent by this wallet.
type Trade struct {
	ID          uint   `gorm:"primaryKey"`
	Wallet      string `gorm:"not null;index"`
	Mint        string `gorm:"not null;index"`
	Side        string `gorm:"not null"`
	SolAmount   string // SOL spent, buys only
	TokenAmount string // tokens sold, sells only
	Success     bool   `gorm:"not null;index"`
	Error       string
	Signature   string `gorm:"index"`
	CreatedAt   time.Time
}

// Token is a mint created by this wallet.
type Token struct {
	ID           uint   `gorm:"primaryKey"`
	Mint         string `gorm:"unique;not null"`
	TokenAccount string `gorm:"not null"`
	Authority    string `gorm:"not null"`
	Decimals     uint8  `gorm:"not null"`
	Supply       uint64 `gorm:"not null"`
	Signature    string `gorm:"not null"`
	CreatedAt    time.Time
}

// Swap is a pump.fun trade observed on the stream.
type Swap struct {
	ID          uint   `gorm:"primaryKey"`
	Account     string `gorm:"not null;index"`
	Mint        string `gorm:"not null;index"`
	SolAmount   uint64 `gorm:"not null"`
	TokenAmount uint64 `gorm:"not null"`
	IsBuy       bool   `gorm:"not null;index"`
	CreatedAt   time.Time
	Signature   string `gorm:"not null"`
}

// Pool is the latest known curve state of a watched mint.
type Pool struct {
	ID                     uint   `gorm:"primaryKey"`
	Mint                   string `gorm:"unique;not null;index"`
	BondingCurve           string `gorm:"not null"`
	AssociatedBondingCurve string `gorm:"not null"`
	VirtualSolReserves     uint64 `gorm:"not null"`
	VirtualTokenReserves   uint64 `gorm:"not null"`
	CreatedAt              time.Time
	Signature              string `gorm:"not null"`
	LastUpdated            time.Time
}

// Store is the trade journal. A nil *Store accepts every call and records
// nothing, so callers need no "journal enabled" branches.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres with connection pooling and migrates the schema.
func Open(dsn string) (*Store, error) {
	newLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:      newLogger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := db.AutoMigrate(&Trade{}, &Token{}, &Swap{}, &Pool{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db.Logger.Info(context.Background(), "Database connection established successfully")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) RecordTrade(ctx context.Context, t Trade) error {
	if s == nil {
		return nil
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(&t).Error
}

func (s *Store) RecordToken(ctx context.Context, t Token) error {
	if s == nil {
		return nil
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(&t).Error
}

func toSwap(p parser.TradeEvent) Swap {
	return Swap{
		Account:     base58.Encode(p.User[:]),
		Mint:        base58.Encode(p.Mint[:]),
		SolAmount:   p.SolAmount,
		TokenAmount: p.TokenAmount,
		IsBuy:       p.IsBuy,
		CreatedAt:   time.Now(),
		Signature:   p.Signature,
	}
}

func toPool(p parser.TradeEvent) (Pool, error) {
	b, ab, err := utils.GetPumpTokenAccounts(p.Mint)
	if err != nil {
		return Pool{}, err
	}
	now := time.Now()
	return Pool{
		Mint:                   base58.Encode(p.Mint[:]),
		BondingCurve:           b.String(),
		AssociatedBondingCurve: ab.String(),
		VirtualSolReserves:     p.VirtualSolReserves,
		VirtualTokenReserves:   p.VirtualTokenReserves,
		CreatedAt:              now,
		Signature:              p.Signature,
		LastUpdated:            now,
	}, nil
}

// AddSwap inserts a single observed swap.
func (s *Store) AddSwap(ctx context.Context, swap parser.TradeEvent) error {
	if s == nil {
		return nil
	}
	row := toSwap(swap)
	return s.db.WithContext(ctx).Create(&row).Error
}

// AddSwapsBatch inserts observed swaps in one statement.
func (s *Store) AddSwapsBatch(ctx context.Context, swaps []parser.TradeEvent) error {
	if s == nil || len(swaps) == 0 {
		return nil
	}
	batch := make([]Swap, len(swaps))
	for i, swap := range swaps {
		batch[i] = toSwap(swap)
	}
	return s.db.WithContext(ctx).Create(&batch).Error
}

// AddOrUpdatePool upserts the curve reserves carried by a trade event.
func (s *Store) AddOrUpdatePool(ctx context.Context, swap parser.TradeEvent) error {
	if s == nil {
		return nil
	}
	p, err := toPool(swap)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "mint"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"bonding_curve",
				"associated_bonding_curve",
				"virtual_sol_reserves",
				"virtual_token_reserves",
				"signature",
				"last_updated",
			}),
		},
	).Create(&p).Error
}
