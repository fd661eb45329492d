package model

import "time"

const (
	SettlementTaskStatePending   = "PENDING"
	SettlementTaskStatePublished = "PUBLISHED"
	SettlementTaskStateDone      = "DONE"
)

// SettlementTask is the durable outbox row created in the Send transaction.
// The publisher worker ships pending rows to the queue; rows stuck in
// PUBLISHED beyond the stale threshold are shipped again, so consumers must
// tolerate redelivery.
type SettlementTask struct {
	ID          string     `gorm:"primaryKey;column:id;type:char(36);<-:create"`
	MessageID   int64      `gorm:"column:message_id;not null;uniqueIndex;<-:create"`
	State       string     `gorm:"column:state;type:varchar(16);not null;index"`
	Attempts    int        `gorm:"column:attempts;not null;default:0"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	LastError   *string    `gorm:"column:last_error;type:text"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}
