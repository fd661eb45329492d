package model

import "time"

type MessageStatus string

const (
	MessageStatusDraft           MessageStatus = "DRAFT"
	MessageStatusPendingApproval MessageStatus = "PENDING_APPROVAL"
	MessageStatusApproved        MessageStatus = "APPROVED"
	MessageStatusRejected        MessageStatus = "REJECTED"
	MessageStatusScheduled       MessageStatus = "SCHEDULED"
	MessageStatusSending         MessageStatus = "SENDING"
	MessageStatusSent            MessageStatus = "SENT"
	MessageStatusDelivered       MessageStatus = "DELIVERED"
	MessageStatusFailed          MessageStatus = "FAILED"
	MessageStatusCancelled       MessageStatus = "CANCELLED"
)

// Terminal reports whether no further transition may leave the status.
func (s MessageStatus) Terminal() bool {
	switch s {
	case MessageStatusRejected, MessageStatusCancelled, MessageStatusDelivered, MessageStatusFailed:
		return true
	}
	return false
}

// Editable reports whether content, category and schedule may still change.
func (s MessageStatus) Editable() bool {
	return s == MessageStatusDraft || s == MessageStatusPendingApproval
}

// Sendable reports whether the dispatch pipeline may move the message to SENT.
func (s MessageStatus) Sendable() bool {
	return s == MessageStatusDraft || s == MessageStatusApproved
}

type MessageCategory string

const (
	CategoryPromotional   MessageCategory = "PROMOTIONAL"
	CategoryTransactional MessageCategory = "TRANSACTIONAL"
	CategoryInformational MessageCategory = "INFORMATIONAL"
	CategoryOneTimeCode   MessageCategory = "ONE_TIME_CODE"
)

func (c MessageCategory) Valid() bool {
	switch c {
	case CategoryPromotional, CategoryTransactional, CategoryInformational, CategoryOneTimeCode:
		return true
	}
	return false
}

// RequiresApproval reports whether the category is gated by the
// promotional-approval flag. Transactional-class traffic never is.
func (c MessageCategory) RequiresApproval() bool {
	return c == CategoryPromotional
}

type Message struct {
	ID               int64           `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	AccountID        string          `gorm:"column:account_id;index:idx_account_client_ref,unique"`
	ClientRef        string          `gorm:"column:client_ref;index:idx_account_client_ref,unique"`
	Content          string          `gorm:"column:content;type:text"`
	Category         MessageCategory `gorm:"column:category;type:varchar(20)"`
	Status           MessageStatus   `gorm:"column:status;type:varchar(20);index"`
	TotalRecipients  int             `gorm:"column:total_recipients"`
	DeliveredCount   int             `gorm:"column:delivered_count"`
	FailedCount      int             `gorm:"column:failed_count"`
	CreditsCharged   int64           `gorm:"column:credits_charged"`
	SenderIdentityID *int64          `gorm:"column:sender_identity_id"`
	CampaignRef      *string         `gorm:"column:campaign_ref"`
	ScheduledAt      *time.Time      `gorm:"column:scheduled_at;index"`
	ApprovedBy       *string         `gorm:"column:approved_by"`
	ApprovedAt       *time.Time      `gorm:"column:approved_at"`
	RejectedReason   *string         `gorm:"column:rejected_reason"`
	SentAt           *time.Time      `gorm:"column:sent_at"`
	CompletedAt      *time.Time      `gorm:"column:completed_at"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at"`
}
