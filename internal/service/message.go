package service

import (
	"context"
	"errors"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/audit"
	"github.com/abenikeb/biisho-a2p/internal/constants"
	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/abenikeb/biisho-a2p/internal/repository"
	"go.uber.org/zap"
)

type MessageService interface {
	Approve(ctx context.Context, cmd ReviewMessageCommand) error
	Reject(ctx context.Context, cmd ReviewMessageCommand) error
	UpdateDraft(ctx context.Context, cmd UpdateDraftCommand) error
	Get(ctx context.Context, accountID string, messageID int64) (*model.Message, error)
	List(ctx context.Context, query GetMessagesQuery) ([]model.Message, int, error)
	ListRecipients(ctx context.Context, accountID string, messageID int64) ([]model.Recipient, error)
}

type message struct {
	messageRepo   repository.MessageRepository
	recipientRepo repository.RecipientRepository
	auditor       audit.Emitter
	logger        *zap.Logger
}

func NewMessageService(messageRepo repository.MessageRepository, recipientRepo repository.RecipientRepository,
	auditor audit.Emitter, logger *zap.Logger) MessageService {
	return &message{messageRepo: messageRepo, recipientRepo: recipientRepo, auditor: auditor, logger: logger}
}

func (m *message) Approve(ctx context.Context, cmd ReviewMessageCommand) error {
	msg, err := m.getForReview(ctx, cmd.MessageID, model.MessageStatusApproved)
	if err != nil {
		return err
	}

	now := time.Now()
	target := model.MessageStatusApproved
	if msg.ScheduledAt != nil && msg.ScheduledAt.After(now) {
		// A schedule survives review; the dispatch worker picks it up when due.
		target = model.MessageStatusScheduled
	}

	update := &model.Message{
		ID:         msg.ID,
		Status:     target,
		ApprovedBy: &cmd.ReviewerID,
		ApprovedAt: &now,
		UpdatedAt:  now,
	}

	if err := m.messageRepo.UpdateGuarded(ctx, update, model.MessageStatusPendingApproval); err != nil {
		return m.reviewUpdateError(cmd.MessageID, target, err)
	}

	m.logger.Info("Message approved",
		zap.Int64("messageID", cmd.MessageID),
		zap.String("status", string(target)),
		zap.String("reviewer", cmd.ReviewerID))

	m.auditor.Emit(ctx, audit.Event{
		Kind:      audit.EventMessageApproved,
		AccountID: msg.AccountID,
		MessageID: msg.ID,
		Detail:    cmd.ReviewerID,
	})

	return nil
}

func (m *message) Reject(ctx context.Context, cmd ReviewMessageCommand) error {
	if cmd.Reason == "" {
		return NewServiceError(constants.ErrCodeInvalidMessage,
			InvalidMessageError{Reason: "rejection requires a reason"})
	}

	msg, err := m.getForReview(ctx, cmd.MessageID, model.MessageStatusRejected)
	if err != nil {
		return err
	}

	now := time.Now()
	update := &model.Message{
		ID:             msg.ID,
		Status:         model.MessageStatusRejected,
		ApprovedBy:     &cmd.ReviewerID,
		ApprovedAt:     &now,
		RejectedReason: &cmd.Reason,
		UpdatedAt:      now,
	}

	if err := m.messageRepo.UpdateGuarded(ctx, update, model.MessageStatusPendingApproval); err != nil {
		return m.reviewUpdateError(cmd.MessageID, model.MessageStatusRejected, err)
	}

	m.logger.Info("Message rejected",
		zap.Int64("messageID", cmd.MessageID),
		zap.String("reviewer", cmd.ReviewerID),
		zap.String("reason", cmd.Reason))

	m.auditor.Emit(ctx, audit.Event{
		Kind:      audit.EventMessageRejected,
		AccountID: msg.AccountID,
		MessageID: msg.ID,
		Detail:    cmd.Reason,
	})

	return nil
}

func (m *message) getForReview(ctx context.Context, messageID int64,
	target model.MessageStatus) (*model.Message, error) {
	msg, err := m.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return nil, NewServiceError(constants.ErrCodeNotFound, ErrMessageNotFound)
		}

		return nil, NewServiceError(constants.ErrCodeInternalError, err)
	}

	if msg.Status != model.MessageStatusPendingApproval {
		return nil, NewServiceError(constants.ErrCodeInvalidStateTransition, InvalidTransitionError{
			From: msg.Status,
			To:   target,
			Rule: "only a message in PENDING_APPROVAL can be reviewed",
		})
	}

	return msg, nil
}

func (m *message) reviewUpdateError(messageID int64, target model.MessageStatus, err error) error {
	if errors.Is(err, repository.ErrNoRowsAffected) {
		// Another reviewer decided first.
		return NewServiceError(constants.ErrCodeInvalidStateTransition, InvalidTransitionError{
			From: model.MessageStatusPendingApproval,
			To:   target,
			Rule: "message was reviewed concurrently",
		})
	}

	m.logger.Error("Failed to persist review decision",
		zap.Int64("messageID", messageID), zap.Error(err))
	return NewServiceError(constants.ErrCodeInternalError, err)
}

func (m *message) UpdateDraft(ctx context.Context, cmd UpdateDraftCommand) error {
	msg, err := m.messageRepo.GetByID(ctx, cmd.MessageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return NewServiceError(constants.ErrCodeNotFound, ErrMessageNotFound)
		}

		return NewServiceError(constants.ErrCodeInternalError, err)
	}

	if cmd.AccountID != "" && msg.AccountID != cmd.AccountID {
		return NewServiceError(constants.ErrCodeNotFound, ErrMessageNotFound)
	}

	if !msg.Status.Editable() {
		return NewServiceError(constants.ErrCodeMessageNotEditable, ErrMessageNotEditable)
	}

	update := &model.Message{ID: msg.ID, UpdatedAt: time.Now()}

	if cmd.Content != nil {
		if reason := validateContent(*cmd.Content); reason != "" {
			return NewServiceError(constants.ErrCodeInvalidMessage, InvalidMessageError{Reason: reason})
		}
		update.Content = *cmd.Content
	}

	if cmd.Category != nil {
		if !cmd.Category.Valid() {
			return NewServiceError(constants.ErrCodeInvalidMessage,
				InvalidMessageError{Reason: "unknown category"})
		}
		update.Category = *cmd.Category
	}

	if cmd.ScheduledAt != nil {
		if cmd.ScheduledAt.Before(time.Now()) {
			return NewServiceError(constants.ErrCodeInvalidMessage,
				InvalidMessageError{Reason: "scheduled time is in the past"})
		}
		update.ScheduledAt = cmd.ScheduledAt
	}

	if err := m.messageRepo.UpdateGuarded(ctx, update,
		model.MessageStatusDraft, model.MessageStatusPendingApproval); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return NewServiceError(constants.ErrCodeMessageNotEditable, ErrMessageNotEditable)
		}

		m.logger.Error("Failed to update draft", zap.Int64("messageID", cmd.MessageID), zap.Error(err))
		return NewServiceError(constants.ErrCodeInternalError, err)
	}

	return nil
}

func (m *message) Get(ctx context.Context, accountID string, messageID int64) (*model.Message, error) {
	msg, err := m.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return nil, NewServiceError(constants.ErrCodeNotFound, ErrMessageNotFound)
		}

		return nil, NewServiceError(constants.ErrCodeInternalError, err)
	}

	if accountID != "" && msg.AccountID != accountID {
		return nil, NewServiceError(constants.ErrCodeNotFound, ErrMessageNotFound)
	}

	return msg, nil
}

func (m *message) ListRecipients(ctx context.Context, accountID string, messageID int64) ([]model.Recipient, error) {
	if _, err := m.Get(ctx, accountID, messageID); err != nil {
		return nil, err
	}

	recipients, err := m.recipientRepo.ListByMessageID(ctx, messageID)
	if err != nil {
		return nil, NewServiceError(constants.ErrCodeInternalError, err)
	}

	return recipients, nil
}

func (m *message) List(ctx context.Context, query GetMessagesQuery) ([]model.Message, int, error) {
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	messages, err := m.messageRepo.GetByAccountID(ctx, query.AccountID, limit, query.Offset)
	if err != nil {
		return nil, 0, NewServiceError(constants.ErrCodeInternalError, err)
	}

	total, err := m.messageRepo.CountByAccountID(ctx, query.AccountID)
	if err != nil {
		return nil, 0, NewServiceError(constants.ErrCodeInternalError, err)
	}

	return messages, total, nil
}
