package v1

import "time"

type SubmitMessageResponse struct {
	MessageID        int64  `json:"message_id"`
	Status           string `json:"status"`
	TotalRecipients  int    `json:"total_recipients"`
	EstimatedCredits int64  `json:"estimated_credits"`
}

type SendMessageResponse struct {
	MessageID      int64     `json:"message_id"`
	Status         string    `json:"status"`
	CreditsCharged int64     `json:"credits_charged"`
	SentAt         time.Time `json:"sent_at"`
}

type MessageResponse struct {
	MessageID       int64      `json:"message_id"`
	ClientRef       string     `json:"client_ref"`
	Content         string     `json:"content"`
	Category        string     `json:"category"`
	Status          string     `json:"status"`
	TotalRecipients int        `json:"total_recipients"`
	DeliveredCount  int        `json:"delivered_count"`
	FailedCount     int        `json:"failed_count"`
	CreditsCharged  int64      `json:"credits_charged"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	SentAt          *time.Time `json:"sent_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type GetMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
	Total    int               `json:"total"`
}

type RecipientResponse struct {
	Address       string     `json:"address"`
	Name          string     `json:"name,omitempty"`
	Status        string     `json:"status"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	TerminalAt    *time.Time `json:"terminal_at,omitempty"`
}

type GetRecipientsResponse struct {
	MessageID  int64               `json:"message_id"`
	Recipients []RecipientResponse `json:"recipients"`
}

type LedgerEntryResponse struct {
	EntryID     int64     `json:"entry_id"`
	Kind        string    `json:"kind"`
	CreditDelta int64     `json:"credit_delta"`
	AmountDelta int64     `json:"amount_delta"`
	Status      string    `json:"status"`
	MessageID   *int64    `json:"message_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type GetLedgerEntriesResponse struct {
	AccountID string                `json:"account_id"`
	Entries   []LedgerEntryResponse `json:"entries"`
}

type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Granted   int64  `json:"granted"`
	Consumed  int64  `json:"consumed"`
	Available int64  `json:"available"`
}
