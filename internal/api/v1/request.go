package v1

import "time"

type RecipientRequest struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

type SubmitMessageRequest struct {
	ClientRef        string             `json:"client_ref"`
	Content          string             `json:"content"`
	Category         string             `json:"category"`
	Recipients       []RecipientRequest `json:"recipients"`
	ContactListIDs   []string           `json:"contact_list_ids"`
	SenderIdentityID *int64             `json:"sender_identity_id"`
	CampaignRef      *string            `json:"campaign_ref"`
	ScheduledAt      *time.Time         `json:"scheduled_at"`
	SaveAsDraft      bool               `json:"save_as_draft"`
}

type UpdateMessageRequest struct {
	Content     *string    `json:"content"`
	Category    *string    `json:"category"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type RejectMessageRequest struct {
	Reason string `json:"reason"`
}

type PurchaseCreditsRequest struct {
	Credits        int64  `json:"credits"`
	AmountPaid     int64  `json:"amount_paid"`
	Kind           string `json:"kind"`
	IdempotencyKey string `json:"idempotency_key"`
}
