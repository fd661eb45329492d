package model

import "time"

// CreditLedger holds one account's prepaid credit position. Granted only
// grows on purchase/bonus; Consumed only grows on usage and only shrinks on
// refund reversal. Invariant: consumed <= granted after every committed write.
type CreditLedger struct {
	AccountID string    `gorm:"column:account_id;primaryKey;type:varchar(64)"`
	Granted   int64     `gorm:"column:granted;not null;default:0"`
	Consumed  int64     `gorm:"column:consumed;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (CreditLedger) TableName() string {
	return "credit_ledgers"
}

func (l CreditLedger) Available() int64 {
	return l.Granted - l.Consumed
}
