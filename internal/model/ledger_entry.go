package model

import "time"

type LedgerEntryKind string

const (
	EntryKindPurchase LedgerEntryKind = "PURCHASE"
	EntryKindUsage    LedgerEntryKind = "USAGE"
	EntryKindRefund   LedgerEntryKind = "REFUND"
	EntryKindBonus    LedgerEntryKind = "BONUS"
)

type LedgerEntryStatus string

const (
	EntryStatusPending   LedgerEntryStatus = "PENDING"
	EntryStatusCompleted LedgerEntryStatus = "COMPLETED"
	EntryStatusFailed    LedgerEntryStatus = "FAILED"
	EntryStatusCancelled LedgerEntryStatus = "CANCELLED"
)

// LedgerEntry is the append-only transcript of a credit-affecting event.
// Rows are created once and never mutated.
type LedgerEntry struct {
	ID             int64             `gorm:"primaryKey;autoIncrement;<-:create"`
	AccountID      string            `gorm:"column:account_id;type:varchar(64);not null;index"`
	Kind           LedgerEntryKind   `gorm:"column:kind;type:varchar(16);not null;<-:create"`
	CreditDelta    int64             `gorm:"column:credit_delta;not null;<-:create"`
	AmountDelta    int64             `gorm:"column:amount_delta;not null;<-:create"`
	Status         LedgerEntryStatus `gorm:"column:status;type:varchar(16);not null"`
	MessageID      *int64            `gorm:"column:message_id;index;<-:create"`
	IdempotencyKey string            `gorm:"column:idempotency_key;type:varchar(64);uniqueIndex;<-:create"`
	CreatedAt      time.Time         `gorm:"column:created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
