package repository

import (
	"context"
	"errors"

	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var ErrEntryDuplicate = errors.New("LEDGER_ENTRY_DUPLICATE")
var ErrEntryNotFound = errors.New("LEDGER_ENTRY_NOT_FOUND")

type LedgerEntryRepository interface {
	Create(ctx context.Context, entry *model.LedgerEntry) error
	GetByIdempotencyKey(ctx context.Context, key string) (*model.LedgerEntry, error)
	ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.LedgerEntry, error)
}

type LedgerEntry struct {
	db *gorm.DB
}

func NewLedgerEntryRepository(db *gorm.DB) LedgerEntryRepository {
	return &LedgerEntry{db: db}
}

func (r *LedgerEntry) Create(ctx context.Context, entry *model.LedgerEntry) error {
	db := GetTx(ctx, r.db)

	err := db.Create(entry).Error
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrEntryDuplicate
	}

	return err
}

func (r *LedgerEntry) GetByIdempotencyKey(ctx context.Context, key string) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry

	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&entry).Error
	if err == nil {
		return &entry, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEntryNotFound
	}

	return nil, err
}

func (r *LedgerEntry) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry

	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}
