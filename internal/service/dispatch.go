package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/abenikeb/biisho-a2p/internal/audit"
	"github.com/abenikeb/biisho-a2p/internal/config"
	"github.com/abenikeb/biisho-a2p/internal/constants"
	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/abenikeb/biisho-a2p/internal/repository"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultTxRetries = 3

type DispatchService interface {
	// Submit validates, resolves and commits a message with its recipient
	// fan-out. No credits are debited; the submit transaction only checks
	// that the account could afford the message as currently composed.
	Submit(ctx context.Context, cmd SubmitMessageCommand) (SubmitMessageResponse, error)

	// Send recomputes the cost, debits the ledger and flips the message to
	// SENT with its recipients, as one atomic unit.
	Send(ctx context.Context, cmd SendMessageCommand) (SendMessageResponse, error)

	// Cancel deletes a DRAFT message together with its recipients.
	Cancel(ctx context.Context, cmd CancelMessageCommand) error

	// DispatchDue claims due SCHEDULED messages and sends them. Returns the
	// number dispatched.
	DispatchDue(ctx context.Context, limit int) (int, error)
}

type dispatch struct {
	messageRepo   repository.MessageRepository
	recipientRepo repository.RecipientRepository
	ledgerRepo    repository.CreditLedgerRepository
	entryRepo     repository.LedgerEntryRepository
	taskRepo      repository.SettlementTaskRepository
	senderRepo    repository.SenderIdentityRepository
	txManager     repository.TxManager
	resolver      RecipientResolver
	settings      SettingsService
	auditor       audit.Emitter
	logger        *zap.Logger
	maxTxRetries  int
	retryBackoff  time.Duration
}

func NewDispatchService(messageRepo repository.MessageRepository, recipientRepo repository.RecipientRepository,
	ledgerRepo repository.CreditLedgerRepository, entryRepo repository.LedgerEntryRepository,
	taskRepo repository.SettlementTaskRepository, senderRepo repository.SenderIdentityRepository,
	txManager repository.TxManager, resolver RecipientResolver, settingsSvc SettingsService,
	auditor audit.Emitter, cfg *config.Config, logger *zap.Logger) DispatchService {

	maxRetries := defaultTxRetries
	backoff := 100 * time.Millisecond
	if cfg != nil {
		if cfg.Dispatch.MaxTxRetries > 0 {
			maxRetries = cfg.Dispatch.MaxTxRetries
		}
		if cfg.Dispatch.RetryBackoff > 0 {
			backoff = cfg.Dispatch.RetryBackoff
		}
	}

	return &dispatch{
		messageRepo:   messageRepo,
		recipientRepo: recipientRepo,
		ledgerRepo:    ledgerRepo,
		entryRepo:     entryRepo,
		taskRepo:      taskRepo,
		senderRepo:    senderRepo,
		txManager:     txManager,
		resolver:      resolver,
		settings:      settingsSvc,
		auditor:       auditor,
		logger:        logger,
		maxTxRetries:  maxRetries,
		retryBackoff:  backoff,
	}
}

func (d *dispatch) Submit(ctx context.Context, cmd SubmitMessageCommand) (SubmitMessageResponse, error) {
	if reason := validateContent(cmd.Content); reason != "" {
		return SubmitMessageResponse{}, NewServiceError(constants.ErrCodeInvalidMessage,
			InvalidMessageError{Reason: reason})
	}

	if !cmd.Category.Valid() {
		return SubmitMessageResponse{}, NewServiceError(constants.ErrCodeInvalidMessage,
			InvalidMessageError{Reason: "unknown category"})
	}

	if cmd.ScheduledAt != nil && cmd.ScheduledAt.Before(time.Now()) {
		return SubmitMessageResponse{}, NewServiceError(constants.ErrCodeInvalidMessage,
			InvalidMessageError{Reason: "scheduled time is in the past"})
	}

	// Resolution runs to completion before costing; duplicates in the raw
	// input must not inflate the charge.
	resolved, err := d.resolver.Resolve(ctx, cmd.AccountID, cmd.Recipients, cmd.ContactListIDs)
	if err != nil {
		return SubmitMessageResponse{}, err
	}

	if cmd.SenderIdentityID != nil {
		if err := d.checkSenderIdentity(ctx, cmd.AccountID, *cmd.SenderIdentityID); err != nil {
			return SubmitMessageResponse{}, err
		}
	}

	segments := ContentSegments(cmd.Content)
	cost := MessageCost(cmd.Content, len(resolved))
	status := d.initialStatus(ctx, cmd)

	clientRef := cmd.ClientRef
	if clientRef == "" {
		clientRef = uuid.NewString()
	}

	msg := model.Message{
		AccountID:        cmd.AccountID,
		ClientRef:        clientRef,
		Content:          cmd.Content,
		Category:         cmd.Category,
		Status:           status,
		TotalRecipients:  len(resolved),
		SenderIdentityID: cmd.SenderIdentityID,
		CampaignRef:      cmd.CampaignRef,
		ScheduledAt:      cmd.ScheduledAt,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	err = d.txManager.WithTx(ctx, func(ctx context.Context) error {
		ledgerRow, err := d.ledgerRepo.GetByAccountID(ctx, cmd.AccountID)
		if err != nil {
			if errors.Is(err, repository.ErrLedgerNotFound) {
				// The ledger row appears with the first purchase; an account
				// that never bought credits simply has none to spend.
				return NewServiceError(constants.ErrCodeInsufficientCredits, ErrInsufficientCredits)
			}
			return err
		}

		if ledgerRow.Available() < cost {
			return NewServiceError(constants.ErrCodeInsufficientCredits, ErrInsufficientCredits)
		}

		if err := d.messageRepo.Create(ctx, &msg); err != nil {
			if errors.Is(err, repository.ErrMessageDuplicate) {
				d.logger.Warn("Duplicate submit detected",
					zap.String("accountID", cmd.AccountID),
					zap.String("clientRef", clientRef))
				return NewServiceError(constants.ErrCodeDuplicateMessage, err)
			}
			return err
		}

		recipients := make([]model.Recipient, 0, len(resolved))
		for _, r := range resolved {
			recipients = append(recipients, model.Recipient{
				MessageID:         msg.ID,
				Address:           r.Address,
				Name:              r.Name,
				Status:            model.RecipientStatusPending,
				CreditsAttributed: segments,
				CreatedAt:         time.Now(),
				UpdatedAt:         time.Now(),
			})
		}

		return d.recipientRepo.CreateBatch(ctx, recipients)
	})

	if err != nil {
		var svcErr Error
		if errors.As(err, &svcErr) {
			return SubmitMessageResponse{}, err
		}

		d.logger.Error("Submit transaction failed",
			zap.String("accountID", cmd.AccountID),
			zap.String("clientRef", clientRef),
			zap.Error(err))
		return SubmitMessageResponse{}, NewServiceError(constants.ErrCodeDispatchFailed, err)
	}

	d.logger.Info("Message submitted",
		zap.Int64("messageID", msg.ID),
		zap.String("accountID", cmd.AccountID),
		zap.String("status", string(status)),
		zap.Int("recipients", len(resolved)),
		zap.Int64("estimatedCredits", cost))

	d.auditor.Emit(ctx, audit.Event{
		Kind:      audit.EventMessageSubmitted,
		AccountID: cmd.AccountID,
		MessageID: msg.ID,
		Detail:    string(status),
	})

	return SubmitMessageResponse{
		MessageID:        msg.ID,
		Status:           status,
		TotalRecipients:  len(resolved),
		EstimatedCredits: cost,
	}, nil
}

// initialStatus applies the submission guard: transactional-class categories
// go straight to APPROVED, promotional traffic waits for review when the
// system flag requires it, and approved submissions with a schedule park in
// SCHEDULED until due.
func (d *dispatch) initialStatus(ctx context.Context, cmd SubmitMessageCommand) model.MessageStatus {
	if cmd.SaveAsDraft {
		return model.MessageStatusDraft
	}

	if cmd.Category.RequiresApproval() && d.settings.ApprovalRequiredForPromotional(ctx) {
		return model.MessageStatusPendingApproval
	}

	if cmd.ScheduledAt != nil {
		return model.MessageStatusScheduled
	}

	return model.MessageStatusApproved
}

func (d *dispatch) checkSenderIdentity(ctx context.Context, accountID string, identityID int64) error {
	identity, err := d.senderRepo.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, repository.ErrSenderIdentityNotFound) {
			return NewServiceError(constants.ErrCodeInvalidSenderIdentity, ErrInvalidSenderIdentity)
		}
		return NewServiceError(constants.ErrCodeInternalError, err)
	}

	if identity.AccountID != accountID || identity.Status != model.SenderIdentityApproved {
		return NewServiceError(constants.ErrCodeInvalidSenderIdentity, ErrInvalidSenderIdentity)
	}

	return nil
}

func (d *dispatch) Send(ctx context.Context, cmd SendMessageCommand) (SendMessageResponse, error) {
	var resp SendMessageResponse
	var accountID string

	err := d.withTxRetry(ctx, func(ctx context.Context) error {
		msg, err := d.messageRepo.GetByID(ctx, cmd.MessageID)
		if err != nil {
			if errors.Is(err, repository.ErrMessageNotFound) {
				return NewServiceError(constants.ErrCodeNotFound, ErrMessageNotFound)
			}
			return err
		}

		if cmd.AccountID != "" && msg.AccountID != cmd.AccountID {
			return NewServiceError(constants.ErrCodeNotFound, ErrMessageNotFound)
		}

		if !msg.Status.Sendable() {
			return NewServiceError(constants.ErrCodeInvalidStateTransition, InvalidTransitionError{
				From: msg.Status,
				To:   model.MessageStatusSent,
				Rule: "only DRAFT or APPROVED messages can be sent",
			})
		}

		accountID = msg.AccountID

		// Cost is recomputed here; content may have been edited since
		// submission, so the submit-time figure is untrustworthy.
		cost := MessageCost(msg.Content, msg.TotalRecipients)

		// Single conditional update: the balance check and the debit are one
		// statement, so concurrent sends on the same account cannot overspend.
		if err := d.ledgerRepo.Debit(ctx, msg.AccountID, cost); err != nil {
			if errors.Is(err, repository.ErrInsufficientCredits) {
				return NewServiceError(constants.ErrCodeInsufficientCredits, ErrInsufficientCredits)
			}
			if errors.Is(err, repository.ErrLedgerNotFound) {
				return NewServiceError(constants.ErrCodeNotFound, ErrAccountNotFound)
			}
			return err
		}

		now := time.Now()
		update := &model.Message{
			ID:             msg.ID,
			Status:         model.MessageStatusSent,
			CreditsCharged: cost,
			SentAt:         &now,
			UpdatedAt:      now,
		}

		if err := d.messageRepo.UpdateGuarded(ctx, update,
			model.MessageStatusDraft, model.MessageStatusApproved); err != nil {
			if errors.Is(err, repository.ErrNoRowsAffected) {
				// Lost the claim to a concurrent Send; roll the debit back
				// with the transaction.
				return NewServiceError(constants.ErrCodeInvalidStateTransition, InvalidTransitionError{
					From: msg.Status,
					To:   model.MessageStatusSent,
					Rule: "message was dispatched concurrently",
				})
			}
			return err
		}

		if err := d.recipientRepo.MarkSentByMessageID(ctx, msg.ID, now); err != nil {
			return err
		}

		entry := model.LedgerEntry{
			AccountID:      msg.AccountID,
			Kind:           model.EntryKindUsage,
			CreditDelta:    -cost,
			Status:         model.EntryStatusCompleted,
			MessageID:      &msg.ID,
			IdempotencyKey: fmt.Sprintf("usage-%d", msg.ID),
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := d.entryRepo.Create(ctx, &entry); err != nil {
			return err
		}

		task := model.SettlementTask{
			ID:        uuid.NewString(),
			MessageID: msg.ID,
			State:     model.SettlementTaskStatePending,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := d.taskRepo.Create(ctx, &task); err != nil {
			return err
		}

		resp = SendMessageResponse{MessageID: msg.ID, CreditsCharged: cost, SentAt: now}
		return nil
	})

	if err != nil {
		return SendMessageResponse{}, err
	}

	d.logger.Info("Message sent",
		zap.Int64("messageID", resp.MessageID),
		zap.Int64("creditsCharged", resp.CreditsCharged))

	d.auditor.Emit(ctx, audit.Event{
		Kind:      audit.EventMessageSent,
		AccountID: accountID,
		MessageID: resp.MessageID,
	})

	return resp, nil
}

func (d *dispatch) Cancel(ctx context.Context, cmd CancelMessageCommand) error {
	var accountID string

	err := d.txManager.WithTx(ctx, func(ctx context.Context) error {
		msg, err := d.messageRepo.GetByID(ctx, cmd.MessageID)
		if err != nil {
			if errors.Is(err, repository.ErrMessageNotFound) {
				return NewServiceError(constants.ErrCodeNotFound, ErrMessageNotFound)
			}
			return err
		}

		if cmd.AccountID != "" && msg.AccountID != cmd.AccountID {
			return NewServiceError(constants.ErrCodeNotFound, ErrMessageNotFound)
		}

		if msg.Status != model.MessageStatusDraft {
			return NewServiceError(constants.ErrCodeMessageNotEditable, ErrMessageNotEditable)
		}

		moved, err := d.recipientRepo.CountLeftPending(ctx, msg.ID)
		if err != nil {
			return err
		}
		if moved > 0 {
			return NewServiceError(constants.ErrCodeMessageNotEditable, ErrMessageNotEditable)
		}

		accountID = msg.AccountID

		if err := d.recipientRepo.DeleteByMessageID(ctx, msg.ID); err != nil {
			return err
		}

		return d.messageRepo.Delete(ctx, msg.ID)
	})

	if err != nil {
		var svcErr Error
		if errors.As(err, &svcErr) {
			return err
		}

		d.logger.Error("Cancel transaction failed", zap.Int64("messageID", cmd.MessageID), zap.Error(err))
		return NewServiceError(constants.ErrCodeDispatchFailed, err)
	}

	d.auditor.Emit(ctx, audit.Event{
		Kind:      audit.EventMessageCancelled,
		AccountID: accountID,
		MessageID: cmd.MessageID,
	})

	return nil
}

func (d *dispatch) DispatchDue(ctx context.Context, limit int) (int, error) {
	due, err := d.messageRepo.FindDueScheduled(ctx, time.Now(), limit)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, msg := range due {
		claim := &model.Message{ID: msg.ID, Status: model.MessageStatusApproved, UpdatedAt: time.Now()}
		err := d.messageRepo.UpdateGuarded(ctx, claim, model.MessageStatusScheduled)
		if err != nil {
			if errors.Is(err, repository.ErrNoRowsAffected) {
				// Another scheduler instance claimed it.
				continue
			}
			return dispatched, err
		}

		if _, err := d.Send(ctx, SendMessageCommand{MessageID: msg.ID}); err != nil {
			d.logger.Error("Failed to dispatch scheduled message",
				zap.Int64("messageID", msg.ID),
				zap.Error(err))
			if retryableSendError(err) {
				d.rescheduleClaim(ctx, msg.ID)
			}
			continue
		}

		dispatched++
	}

	return dispatched, nil
}

// rescheduleClaim returns a claimed message to the scheduling pool so the
// next tick retries its send.
func (d *dispatch) rescheduleClaim(ctx context.Context, messageID int64) {
	revert := &model.Message{ID: messageID, Status: model.MessageStatusScheduled, UpdatedAt: time.Now()}
	err := d.messageRepo.UpdateGuarded(ctx, revert, model.MessageStatusApproved)
	if err != nil && !errors.Is(err, repository.ErrNoRowsAffected) {
		d.logger.Error("Failed to return message to the schedule",
			zap.Int64("messageID", messageID),
			zap.Error(err))
	}
}

// retryableSendError reports whether a failed scheduled send may succeed on
// a later tick. Validation and state-machine refusals are final; transient
// infrastructure trouble is not.
func retryableSendError(err error) bool {
	var svcErr Error
	if !errors.As(err, &svcErr) {
		return true
	}

	switch svcErr.Code {
	case constants.ErrCodeDispatchFailed, constants.ErrCodeInternalError:
		return true
	}

	return false
}

// withTxRetry runs the transactional unit, retrying deadlocks and lock
// timeouts a bounded number of times. Exhaustion surfaces as DispatchFailed.
func (d *dispatch) withTxRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= d.maxTxRetries; attempt++ {
		err := d.txManager.WithTx(ctx, fn)
		if err == nil {
			return nil
		}

		var svcErr Error
		if errors.As(err, &svcErr) {
			return err
		}

		if !isRetryableTxError(err) {
			d.logger.Error("Dispatch transaction failed", zap.Error(err))
			return NewServiceError(constants.ErrCodeDispatchFailed, err)
		}

		lastErr = err
		d.logger.Warn("Retrying dispatch transaction",
			zap.Int("attempt", attempt),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return NewServiceError(constants.ErrCodeDispatchFailed, ctx.Err())
		case <-time.After(d.retryBackoff * time.Duration(attempt)):
		}
	}

	d.logger.Error("Dispatch transaction exhausted retries",
		zap.Int("maxRetries", d.maxTxRetries),
		zap.Error(lastErr))

	return NewServiceError(constants.ErrCodeDispatchFailed, lastErr)
}

// MySQL 1213 is a deadlock, 1205 a lock wait timeout; both are safe to retry
// because the whole unit rolled back.
func isRetryableTxError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}

func validateContent(content string) string {
	n := utf8.RuneCountInString(content)
	if n == 0 {
		return "content is empty"
	}
	if n > MaxContentLength {
		return fmt.Sprintf("content exceeds %d characters", MaxContentLength)
	}
	return ""
}
