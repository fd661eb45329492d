package model

import "time"

type RecipientStatus string

const (
	RecipientStatusPending   RecipientStatus = "PENDING"
	RecipientStatusSent      RecipientStatus = "SENT"
	RecipientStatusDelivered RecipientStatus = "DELIVERED"
	RecipientStatusFailed    RecipientStatus = "FAILED"
)

func (s RecipientStatus) Terminal() bool {
	return s == RecipientStatusDelivered || s == RecipientStatusFailed
}

// Recipient is one (message, destination) pair. The name is a snapshot taken
// at resolution time; later contact edits do not flow back into it.
type Recipient struct {
	ID                int64           `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	MessageID         int64           `gorm:"column:message_id;not null;index:idx_message_address,unique"`
	Address           string          `gorm:"column:address;type:varchar(32);not null;index:idx_message_address,unique"`
	Name              string          `gorm:"column:name;type:varchar(255)"`
	Status            RecipientStatus `gorm:"column:status;type:varchar(16);index"`
	CreditsAttributed int64           `gorm:"column:credits_attributed;default:1"`
	FailureReason     *string         `gorm:"column:failure_reason"`
	TerminalAt        *time.Time      `gorm:"column:terminal_at"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
}
