package model

import "time"

type SenderIdentityStatus string

const (
	SenderIdentityPending  SenderIdentityStatus = "PENDING"
	SenderIdentityApproved SenderIdentityStatus = "APPROVED"
	SenderIdentityRejected SenderIdentityStatus = "REJECTED"
)

type SenderIdentity struct {
	ID        int64                `gorm:"primaryKey;autoIncrement;<-:create"`
	AccountID string               `gorm:"column:account_id;type:varchar(64);not null;index"`
	Name      string               `gorm:"column:name;type:varchar(64);not null"`
	Status    SenderIdentityStatus `gorm:"column:status;type:varchar(16);not null"`
	CreatedAt time.Time            `gorm:"column:created_at"`
	UpdatedAt time.Time            `gorm:"column:updated_at"`
}

func (SenderIdentity) TableName() string {
	return "sender_identities"
}
