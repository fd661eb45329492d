package v1

import (
	"strconv"

	"github.com/abenikeb/biisho-a2p/internal/constants"
	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/abenikeb/biisho-a2p/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AccountHeader carries the authenticated account id supplied by the external
// identity provider; the pipeline trusts it.
const AccountHeader = "X-Account-ID"

// ReviewerHeader identifies the reviewer on approval endpoints.
const ReviewerHeader = "X-Reviewer-ID"

type Handler struct {
	logger   *zap.Logger
	dispatch service.DispatchService
	messages service.MessageService
	ledger   service.LedgerService
}

func NewHandler(logger *zap.Logger, dispatch service.DispatchService,
	messages service.MessageService, ledger service.LedgerService) *Handler {
	return &Handler{logger: logger, dispatch: dispatch, messages: messages, ledger: ledger}
}

func (h *Handler) Pong(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (h *Handler) SubmitMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	accountID := c.Get(AccountHeader)
	if accountID == "" {
		return badRequest(c, "missing account header")
	}

	var request SubmitMessageRequest
	if err := c.BodyParser(&request); err != nil {
		h.logger.Warn("Failed to parse body", zap.Error(err))
		return badRequest(c, constants.GetErrorMessage(constants.ErrCodeInvalidRequestBody))
	}

	recipients := make([]service.RecipientInput, 0, len(request.Recipients))
	for _, r := range request.Recipients {
		recipients = append(recipients, service.RecipientInput{Address: r.Address, Name: r.Name})
	}

	cmd := service.SubmitMessageCommand{
		AccountID:        accountID,
		ClientRef:        request.ClientRef,
		Content:          request.Content,
		Category:         model.MessageCategory(request.Category),
		Recipients:       recipients,
		ContactListIDs:   request.ContactListIDs,
		SenderIdentityID: request.SenderIdentityID,
		CampaignRef:      request.CampaignRef,
		ScheduledAt:      request.ScheduledAt,
		SaveAsDraft:      request.SaveAsDraft,
	}

	resp, err := h.dispatch.Submit(ctx, cmd)
	if err != nil {
		return err
	}

	h.logger.Info("Message submitted",
		zap.String("accountID", accountID),
		zap.Int64("messageID", resp.MessageID))

	return c.Status(fiber.StatusCreated).JSON(SubmitMessageResponse{
		MessageID:        resp.MessageID,
		Status:           string(resp.Status),
		TotalRecipients:  resp.TotalRecipients,
		EstimatedCredits: resp.EstimatedCredits,
	})
}

func (h *Handler) SendMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	messageID, err := messageID(c)
	if err != nil {
		return badRequest(c, "invalid message id")
	}

	resp, err := h.dispatch.Send(ctx, service.SendMessageCommand{
		MessageID: messageID,
		AccountID: c.Get(AccountHeader),
	})
	if err != nil {
		return err
	}

	return c.JSON(SendMessageResponse{
		MessageID:      resp.MessageID,
		Status:         string(model.MessageStatusSent),
		CreditsCharged: resp.CreditsCharged,
		SentAt:         resp.SentAt,
	})
}

func (h *Handler) ApproveMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	messageID, err := messageID(c)
	if err != nil {
		return badRequest(c, "invalid message id")
	}

	reviewer := c.Get(ReviewerHeader)
	if reviewer == "" {
		return badRequest(c, "missing reviewer header")
	}

	if err := h.messages.Approve(ctx, service.ReviewMessageCommand{
		MessageID:  messageID,
		ReviewerID: reviewer,
	}); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"status": string(model.MessageStatusApproved)})
}

func (h *Handler) RejectMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	messageID, err := messageID(c)
	if err != nil {
		return badRequest(c, "invalid message id")
	}

	reviewer := c.Get(ReviewerHeader)
	if reviewer == "" {
		return badRequest(c, "missing reviewer header")
	}

	var request RejectMessageRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, constants.GetErrorMessage(constants.ErrCodeInvalidRequestBody))
	}

	if err := h.messages.Reject(ctx, service.ReviewMessageCommand{
		MessageID:  messageID,
		ReviewerID: reviewer,
		Reason:     request.Reason,
	}); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"status": string(model.MessageStatusRejected)})
}

func (h *Handler) CancelMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	messageID, err := messageID(c)
	if err != nil {
		return badRequest(c, "invalid message id")
	}

	if err := h.dispatch.Cancel(ctx, service.CancelMessageCommand{
		MessageID: messageID,
		AccountID: c.Get(AccountHeader),
	}); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) UpdateMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	messageID, err := messageID(c)
	if err != nil {
		return badRequest(c, "invalid message id")
	}

	var request UpdateMessageRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, constants.GetErrorMessage(constants.ErrCodeInvalidRequestBody))
	}

	cmd := service.UpdateDraftCommand{
		MessageID:   messageID,
		AccountID:   c.Get(AccountHeader),
		Content:     request.Content,
		ScheduledAt: request.ScheduledAt,
	}
	if request.Category != nil {
		category := model.MessageCategory(*request.Category)
		cmd.Category = &category
	}

	if err := h.messages.UpdateDraft(ctx, cmd); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) GetMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	messageID, err := messageID(c)
	if err != nil {
		return badRequest(c, "invalid message id")
	}

	msg, err := h.messages.Get(ctx, c.Get(AccountHeader), messageID)
	if err != nil {
		return err
	}

	return c.JSON(toMessageResponse(*msg))
}

func (h *Handler) GetRecipients(c *fiber.Ctx) error {
	ctx := c.UserContext()

	messageID, err := messageID(c)
	if err != nil {
		return badRequest(c, "invalid message id")
	}

	recipients, err := h.messages.ListRecipients(ctx, c.Get(AccountHeader), messageID)
	if err != nil {
		return err
	}

	out := make([]RecipientResponse, 0, len(recipients))
	for _, r := range recipients {
		out = append(out, RecipientResponse{
			Address:       r.Address,
			Name:          r.Name,
			Status:        string(r.Status),
			FailureReason: r.FailureReason,
			TerminalAt:    r.TerminalAt,
		})
	}

	return c.JSON(GetRecipientsResponse{MessageID: messageID, Recipients: out})
}

func (h *Handler) GetMessages(c *fiber.Ctx) error {
	ctx := c.UserContext()

	accountID := c.Get(AccountHeader)
	if accountID == "" {
		return badRequest(c, "missing account header")
	}

	query := service.GetMessagesQuery{
		AccountID: accountID,
		Limit:     c.QueryInt("limit", 20),
		Offset:    c.QueryInt("offset", 0),
	}

	messages, total, err := h.messages.List(ctx, query)
	if err != nil {
		return err
	}

	out := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		out = append(out, toMessageResponse(msg))
	}

	return c.JSON(GetMessagesResponse{Messages: out, Total: total})
}

func (h *Handler) GetBalance(c *fiber.Ctx) error {
	ctx := c.UserContext()

	balance, err := h.ledger.Balance(ctx, c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(BalanceResponse{
		AccountID: balance.AccountID,
		Granted:   balance.Granted,
		Consumed:  balance.Consumed,
		Available: balance.Available,
	})
}

func (h *Handler) PurchaseCredits(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request PurchaseCreditsRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequest(c, constants.GetErrorMessage(constants.ErrCodeInvalidRequestBody))
	}

	balance, err := h.ledger.Purchase(ctx, service.PurchaseCreditsCommand{
		AccountID:      c.Params("id"),
		Credits:        request.Credits,
		AmountPaid:     request.AmountPaid,
		Kind:           model.LedgerEntryKind(request.Kind),
		IdempotencyKey: request.IdempotencyKey,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(BalanceResponse{
		AccountID: balance.AccountID,
		Granted:   balance.Granted,
		Consumed:  balance.Consumed,
		Available: balance.Available,
	})
}

func (h *Handler) GetLedgerEntries(c *fiber.Ctx) error {
	ctx := c.UserContext()

	entries, err := h.ledger.Entries(ctx, service.GetEntriesQuery{
		AccountID: c.Params("id"),
		Limit:     c.QueryInt("limit", 20),
		Offset:    c.QueryInt("offset", 0),
	})
	if err != nil {
		return err
	}

	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, LedgerEntryResponse{
			EntryID:     entry.ID,
			Kind:        string(entry.Kind),
			CreditDelta: entry.CreditDelta,
			AmountDelta: entry.AmountDelta,
			Status:      string(entry.Status),
			MessageID:   entry.MessageID,
			CreatedAt:   entry.CreatedAt,
		})
	}

	return c.JSON(GetLedgerEntriesResponse{AccountID: c.Params("id"), Entries: out})
}

func toMessageResponse(msg model.Message) MessageResponse {
	return MessageResponse{
		MessageID:       msg.ID,
		ClientRef:       msg.ClientRef,
		Content:         msg.Content,
		Category:        string(msg.Category),
		Status:          string(msg.Status),
		TotalRecipients: msg.TotalRecipients,
		DeliveredCount:  msg.DeliveredCount,
		FailedCount:     msg.FailedCount,
		CreditsCharged:  msg.CreditsCharged,
		ScheduledAt:     msg.ScheduledAt,
		SentAt:          msg.SentAt,
		CompletedAt:     msg.CompletedAt,
		CreatedAt:       msg.CreatedAt,
	}
}

func messageID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"code":    constants.ErrCodeInvalidRequestBody,
		"message": message,
	})
}
