package repository

import (
	"context"
	"errors"

	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var ErrLedgerNotFound = errors.New("LEDGER_NOT_FOUND")
var ErrLedgerExists = errors.New("LEDGER_EXISTS")
var ErrInsufficientCredits = errors.New("INSUFFICIENT_CREDITS")

type CreditLedgerRepository interface {
	Create(ctx context.Context, ledger *model.CreditLedger) error
	GetByAccountID(ctx context.Context, accountID string) (*model.CreditLedger, error)
	Debit(ctx context.Context, accountID string, credits int64) error
	Grant(ctx context.Context, accountID string, credits int64) error
	ReverseConsumption(ctx context.Context, accountID string, credits int64) error
}

type CreditLedger struct {
	db *gorm.DB
}

func NewCreditLedgerRepository(db *gorm.DB) CreditLedgerRepository {
	return &CreditLedger{db: db}
}

func (r *CreditLedger) Create(ctx context.Context, ledger *model.CreditLedger) error {
	db := GetTx(ctx, r.db)

	err := db.Create(ledger).Error
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrLedgerExists
	}

	return err
}

func (r *CreditLedger) GetByAccountID(ctx context.Context, accountID string) (*model.CreditLedger, error) {
	db := GetTx(ctx, r.db)

	var ledger model.CreditLedger
	err := db.Where("account_id = ?", accountID).First(&ledger).Error
	if err == nil {
		return &ledger, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLedgerNotFound
	}

	return nil, err
}

// Debit spends credits through a single conditional update. The WHERE clause
// carries the balance check, so two racing debits on the same account can
// never push consumed past granted; the loser sees zero rows affected.
func (r *CreditLedger) Debit(ctx context.Context, accountID string, credits int64) error {
	db := GetTx(ctx, r.db)

	result := db.Exec(
		"UPDATE credit_ledgers SET consumed = consumed + ?, updated_at = NOW() "+
			"WHERE account_id = ? AND consumed + ? <= granted",
		credits, accountID, credits)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&model.CreditLedger{}).Where("account_id = ?", accountID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrLedgerNotFound
		}
		return ErrInsufficientCredits
	}

	return nil
}

func (r *CreditLedger) Grant(ctx context.Context, accountID string, credits int64) error {
	db := GetTx(ctx, r.db)

	result := db.Exec(
		"UPDATE credit_ledgers SET granted = granted + ?, updated_at = NOW() WHERE account_id = ?",
		credits, accountID)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrLedgerNotFound
	}

	return nil
}

// ReverseConsumption gives previously spent credits back on cancellation or
// refund. Consumed never goes below zero.
func (r *CreditLedger) ReverseConsumption(ctx context.Context, accountID string, credits int64) error {
	db := GetTx(ctx, r.db)

	result := db.Exec(
		"UPDATE credit_ledgers SET consumed = consumed - ?, updated_at = NOW() "+
			"WHERE account_id = ? AND consumed >= ?",
		credits, accountID, credits)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrLedgerNotFound
	}

	return nil
}
