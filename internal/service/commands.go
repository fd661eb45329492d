package service

import (
	"time"

	"github.com/abenikeb/biisho-a2p/internal/model"
)

type RecipientInput struct {
	Address string
	Name    string
}

type SubmitMessageCommand struct {
	AccountID        string
	ClientRef        string
	Content          string
	Category         model.MessageCategory
	Recipients       []RecipientInput
	ContactListIDs   []string
	SenderIdentityID *int64
	CampaignRef      *string
	ScheduledAt      *time.Time
	SaveAsDraft      bool
}

type SubmitMessageResponse struct {
	MessageID        int64
	Status           model.MessageStatus
	TotalRecipients  int
	EstimatedCredits int64
}

type SendMessageCommand struct {
	MessageID int64  `json:"message_id"`
	AccountID string `json:"account_id"`
}

type SendMessageResponse struct {
	MessageID      int64
	CreditsCharged int64
	SentAt         time.Time
}

type CancelMessageCommand struct {
	MessageID int64
	AccountID string
}

type ReviewMessageCommand struct {
	MessageID  int64
	ReviewerID string
	Reason     string
}

type UpdateDraftCommand struct {
	MessageID   int64
	AccountID   string
	Content     *string
	Category    *model.MessageCategory
	ScheduledAt *time.Time
}

type GetMessagesQuery struct {
	AccountID string
	Limit     int
	Offset    int
}

type GetEntriesQuery struct {
	AccountID string
	Limit     int
	Offset    int
}

type PurchaseCreditsCommand struct {
	AccountID      string
	Credits        int64
	AmountPaid     int64
	Kind           model.LedgerEntryKind
	IdempotencyKey string
}

type BalanceResponse struct {
	AccountID string
	Granted   int64
	Consumed  int64
	Available int64
}

// SettleMessageCommand is the settlement task payload carried through the
// queue between the publisher and the settlement worker.
type SettleMessageCommand struct {
	TaskID    string `json:"task_id"`
	MessageID int64  `json:"message_id"`
}
