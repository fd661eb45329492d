package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/audit"
	"github.com/abenikeb/biisho-a2p/internal/constants"
	"github.com/abenikeb/biisho-a2p/internal/mocks"
	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/abenikeb/biisho-a2p/internal/repository"
	"github.com/abenikeb/biisho-a2p/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type dispatchFixture struct {
	messageRepo   *mocks.MessageRepository
	recipientRepo *mocks.RecipientRepository
	ledgerRepo    *mocks.CreditLedgerRepository
	entryRepo     *mocks.LedgerEntryRepository
	taskRepo      *mocks.SettlementTaskRepository
	senderRepo    *mocks.SenderIdentityRepository
	txManager     *mocks.TxManager
	resolver      *mocks.RecipientResolver
	settings      *mocks.SettingsService
	svc           service.DispatchService
}

func newDispatchFixture() *dispatchFixture {
	f := &dispatchFixture{
		messageRepo:   &mocks.MessageRepository{},
		recipientRepo: &mocks.RecipientRepository{},
		ledgerRepo:    &mocks.CreditLedgerRepository{},
		entryRepo:     &mocks.LedgerEntryRepository{},
		taskRepo:      &mocks.SettlementTaskRepository{},
		senderRepo:    &mocks.SenderIdentityRepository{},
		txManager:     &mocks.TxManager{},
		resolver:      &mocks.RecipientResolver{},
		settings:      &mocks.SettingsService{},
	}

	f.svc = service.NewDispatchService(f.messageRepo, f.recipientRepo, f.ledgerRepo, f.entryRepo,
		f.taskRepo, f.senderRepo, f.txManager, f.resolver, f.settings,
		audit.NewNopEmitter(), nil, zap.NewNop())

	return f
}

func (f *dispatchFixture) assertExpectations(t *testing.T) {
	f.messageRepo.AssertExpectations(t)
	f.recipientRepo.AssertExpectations(t)
	f.ledgerRepo.AssertExpectations(t)
	f.entryRepo.AssertExpectations(t)
	f.taskRepo.AssertExpectations(t)
	f.senderRepo.AssertExpectations(t)
	f.resolver.AssertExpectations(t)
	f.settings.AssertExpectations(t)
}

func assertServiceCode(t *testing.T, err error, code string) {
	t.Helper()
	var svcErr service.Error
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, code, svcErr.Code)
}

func TestDispatch_Submit(t *testing.T) {
	ctx := context.Background()

	cmd := service.SubmitMessageCommand{
		AccountID: "acct-1",
		ClientRef: "ref-1",
		Content:   strings.Repeat("x", 321),
		Category:  model.CategoryTransactional,
		Recipients: []service.RecipientInput{
			{Address: "+251911000001"},
			{Address: "+251911000002"},
		},
	}

	resolved := []service.ResolvedRecipient{
		{Address: "+251911000001"},
		{Address: "+251911000002"},
	}

	t.Run("submits transactional message straight to APPROVED", func(t *testing.T) {
		f := newDispatchFixture()

		f.resolver.On("Resolve", ctx, "acct-1", cmd.Recipients, cmd.ContactListIDs).Return(resolved, nil)
		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.ledgerRepo.On("GetByAccountID", ctx, "acct-1").
			Return(&model.CreditLedger{AccountID: "acct-1", Granted: 100}, nil)

		f.messageRepo.On("Create", ctx, mock.MatchedBy(func(msg *model.Message) bool {
			return msg.AccountID == "acct-1" &&
				msg.ClientRef == "ref-1" &&
				msg.Status == model.MessageStatusApproved &&
				msg.TotalRecipients == 2
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*model.Message).ID = 42
		}).Return(nil)

		f.recipientRepo.On("CreateBatch", ctx, mock.MatchedBy(func(recipients []model.Recipient) bool {
			return len(recipients) == 2 &&
				recipients[0].MessageID == 42 &&
				recipients[0].Status == model.RecipientStatusPending &&
				recipients[0].CreditsAttributed == 3
		})).Return(nil)

		resp, err := f.svc.Submit(ctx, cmd)

		assert.NoError(t, err)
		assert.Equal(t, int64(42), resp.MessageID)
		assert.Equal(t, model.MessageStatusApproved, resp.Status)
		assert.Equal(t, 2, resp.TotalRecipients)
		assert.Equal(t, int64(6), resp.EstimatedCredits)
		f.assertExpectations(t)
	})

	t.Run("promotional message waits for review when the flag is on", func(t *testing.T) {
		f := newDispatchFixture()

		promo := cmd
		promo.Category = model.CategoryPromotional

		f.resolver.On("Resolve", ctx, "acct-1", promo.Recipients, promo.ContactListIDs).Return(resolved, nil)
		f.settings.On("ApprovalRequiredForPromotional", ctx).Return(true)
		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.ledgerRepo.On("GetByAccountID", ctx, "acct-1").
			Return(&model.CreditLedger{AccountID: "acct-1", Granted: 100}, nil)
		f.messageRepo.On("Create", ctx, mock.MatchedBy(func(msg *model.Message) bool {
			return msg.Status == model.MessageStatusPendingApproval
		})).Return(nil)
		f.recipientRepo.On("CreateBatch", ctx, mock.AnythingOfType("[]model.Recipient")).Return(nil)

		resp, err := f.svc.Submit(ctx, promo)

		assert.NoError(t, err)
		assert.Equal(t, model.MessageStatusPendingApproval, resp.Status)
		f.assertExpectations(t)
	})

	t.Run("promotional message is auto approved when the flag is off", func(t *testing.T) {
		f := newDispatchFixture()

		promo := cmd
		promo.Category = model.CategoryPromotional

		f.resolver.On("Resolve", ctx, "acct-1", promo.Recipients, promo.ContactListIDs).Return(resolved, nil)
		f.settings.On("ApprovalRequiredForPromotional", ctx).Return(false)
		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.ledgerRepo.On("GetByAccountID", ctx, "acct-1").
			Return(&model.CreditLedger{AccountID: "acct-1", Granted: 100}, nil)
		f.messageRepo.On("Create", ctx, mock.MatchedBy(func(msg *model.Message) bool {
			return msg.Status == model.MessageStatusApproved
		})).Return(nil)
		f.recipientRepo.On("CreateBatch", ctx, mock.AnythingOfType("[]model.Recipient")).Return(nil)

		resp, err := f.svc.Submit(ctx, promo)

		assert.NoError(t, err)
		assert.Equal(t, model.MessageStatusApproved, resp.Status)
		f.assertExpectations(t)
	})

	t.Run("draft submission skips the approval guard", func(t *testing.T) {
		f := newDispatchFixture()

		draft := cmd
		draft.Category = model.CategoryPromotional
		draft.SaveAsDraft = true

		f.resolver.On("Resolve", ctx, "acct-1", draft.Recipients, draft.ContactListIDs).Return(resolved, nil)
		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.ledgerRepo.On("GetByAccountID", ctx, "acct-1").
			Return(&model.CreditLedger{AccountID: "acct-1", Granted: 100}, nil)
		f.messageRepo.On("Create", ctx, mock.MatchedBy(func(msg *model.Message) bool {
			return msg.Status == model.MessageStatusDraft
		})).Return(nil)
		f.recipientRepo.On("CreateBatch", ctx, mock.AnythingOfType("[]model.Recipient")).Return(nil)

		resp, err := f.svc.Submit(ctx, draft)

		assert.NoError(t, err)
		assert.Equal(t, model.MessageStatusDraft, resp.Status)
		f.assertExpectations(t)
	})

	t.Run("approved submission with a future schedule parks in SCHEDULED", func(t *testing.T) {
		f := newDispatchFixture()

		at := time.Now().Add(time.Hour)
		scheduled := cmd
		scheduled.ScheduledAt = &at

		f.resolver.On("Resolve", ctx, "acct-1", scheduled.Recipients, scheduled.ContactListIDs).Return(resolved, nil)
		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.ledgerRepo.On("GetByAccountID", ctx, "acct-1").
			Return(&model.CreditLedger{AccountID: "acct-1", Granted: 100}, nil)
		f.messageRepo.On("Create", ctx, mock.MatchedBy(func(msg *model.Message) bool {
			return msg.Status == model.MessageStatusScheduled
		})).Return(nil)
		f.recipientRepo.On("CreateBatch", ctx, mock.AnythingOfType("[]model.Recipient")).Return(nil)

		resp, err := f.svc.Submit(ctx, scheduled)

		assert.NoError(t, err)
		assert.Equal(t, model.MessageStatusScheduled, resp.Status)
		f.assertExpectations(t)
	})

	t.Run("rejects empty content before resolving", func(t *testing.T) {
		f := newDispatchFixture()

		invalid := cmd
		invalid.Content = ""

		_, err := f.svc.Submit(ctx, invalid)

		assertServiceCode(t, err, constants.ErrCodeInvalidMessage)
		f.assertExpectations(t)
	})

	t.Run("rejects content over the length cap", func(t *testing.T) {
		f := newDispatchFixture()

		invalid := cmd
		invalid.Content = strings.Repeat("x", service.MaxContentLength+1)

		_, err := f.svc.Submit(ctx, invalid)

		assertServiceCode(t, err, constants.ErrCodeInvalidMessage)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		f := newDispatchFixture()

		invalid := cmd
		invalid.Category = "NEWSLETTER"

		_, err := f.svc.Submit(ctx, invalid)

		assertServiceCode(t, err, constants.ErrCodeInvalidMessage)
	})

	t.Run("rejects schedule in the past", func(t *testing.T) {
		f := newDispatchFixture()

		at := time.Now().Add(-time.Minute)
		invalid := cmd
		invalid.ScheduledAt = &at

		_, err := f.svc.Submit(ctx, invalid)

		assertServiceCode(t, err, constants.ErrCodeInvalidMessage)
	})

	t.Run("rejects submission the account cannot afford without writing", func(t *testing.T) {
		f := newDispatchFixture()

		f.resolver.On("Resolve", ctx, "acct-1", cmd.Recipients, cmd.ContactListIDs).Return(resolved, nil)
		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.ledgerRepo.On("GetByAccountID", ctx, "acct-1").
			Return(&model.CreditLedger{AccountID: "acct-1", Granted: 10, Consumed: 5}, nil)

		_, err := f.svc.Submit(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeInsufficientCredits)
		f.messageRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.recipientRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("never funded account is out of credits", func(t *testing.T) {
		f := newDispatchFixture()

		f.resolver.On("Resolve", ctx, "acct-1", cmd.Recipients, cmd.ContactListIDs).Return(resolved, nil)
		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.ledgerRepo.On("GetByAccountID", ctx, "acct-1").Return(nil, repository.ErrLedgerNotFound)

		_, err := f.svc.Submit(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeInsufficientCredits)
		f.messageRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("surfaces duplicate client ref as conflict", func(t *testing.T) {
		f := newDispatchFixture()

		f.resolver.On("Resolve", ctx, "acct-1", cmd.Recipients, cmd.ContactListIDs).Return(resolved, nil)
		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.ledgerRepo.On("GetByAccountID", ctx, "acct-1").
			Return(&model.CreditLedger{AccountID: "acct-1", Granted: 100}, nil)
		f.messageRepo.On("Create", ctx, mock.AnythingOfType("*model.Message")).
			Return(repository.ErrMessageDuplicate)

		_, err := f.svc.Submit(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeDuplicateMessage)
	})

	t.Run("rejects sender identity owned by another account", func(t *testing.T) {
		f := newDispatchFixture()

		identityID := int64(7)
		withSender := cmd
		withSender.SenderIdentityID = &identityID

		f.resolver.On("Resolve", ctx, "acct-1", withSender.Recipients, withSender.ContactListIDs).Return(resolved, nil)
		f.senderRepo.On("GetByID", ctx, identityID).Return(&model.SenderIdentity{
			ID:        identityID,
			AccountID: "acct-2",
			Status:    model.SenderIdentityApproved,
		}, nil)

		_, err := f.svc.Submit(ctx, withSender)

		assertServiceCode(t, err, constants.ErrCodeInvalidSenderIdentity)
		f.assertExpectations(t)
	})

	t.Run("rejects sender identity that is not approved", func(t *testing.T) {
		f := newDispatchFixture()

		identityID := int64(7)
		withSender := cmd
		withSender.SenderIdentityID = &identityID

		f.resolver.On("Resolve", ctx, "acct-1", withSender.Recipients, withSender.ContactListIDs).Return(resolved, nil)
		f.senderRepo.On("GetByID", ctx, identityID).Return(&model.SenderIdentity{
			ID:        identityID,
			AccountID: "acct-1",
			Status:    model.SenderIdentityPending,
		}, nil)

		_, err := f.svc.Submit(ctx, withSender)

		assertServiceCode(t, err, constants.ErrCodeInvalidSenderIdentity)
	})
}

func TestDispatch_Send(t *testing.T) {
	ctx := context.Background()
	cmd := service.SendMessageCommand{MessageID: 42, AccountID: "acct-1"}

	approvedMessage := func() *model.Message {
		return &model.Message{
			ID:              42,
			AccountID:       "acct-1",
			Content:         strings.Repeat("x", 321),
			Status:          model.MessageStatusApproved,
			TotalRecipients: 8,
		}
	}

	t.Run("debits recomputed cost and flips message with recipients", func(t *testing.T) {
		f := newDispatchFixture()

		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.messageRepo.On("GetByID", ctx, int64(42)).Return(approvedMessage(), nil)
		f.ledgerRepo.On("Debit", ctx, "acct-1", int64(24)).Return(nil)

		f.messageRepo.On("UpdateGuarded", ctx, mock.MatchedBy(func(msg *model.Message) bool {
			return msg.ID == 42 &&
				msg.Status == model.MessageStatusSent &&
				msg.CreditsCharged == 24 &&
				msg.SentAt != nil
		}), model.MessageStatusDraft, model.MessageStatusApproved).Return(nil)

		f.recipientRepo.On("MarkSentByMessageID", ctx, int64(42), mock.AnythingOfType("time.Time")).Return(nil)

		f.entryRepo.On("Create", ctx, mock.MatchedBy(func(entry *model.LedgerEntry) bool {
			return entry.AccountID == "acct-1" &&
				entry.Kind == model.EntryKindUsage &&
				entry.CreditDelta == -24 &&
				entry.IdempotencyKey == "usage-42"
		})).Return(nil)

		f.taskRepo.On("Create", ctx, mock.MatchedBy(func(task *model.SettlementTask) bool {
			return task.MessageID == 42 &&
				task.State == model.SettlementTaskStatePending &&
				task.ID != ""
		})).Return(nil)

		resp, err := f.svc.Send(ctx, cmd)

		assert.NoError(t, err)
		assert.Equal(t, int64(42), resp.MessageID)
		assert.Equal(t, int64(24), resp.CreditsCharged)
		f.assertExpectations(t)
	})

	t.Run("insufficient credits aborts before any state change", func(t *testing.T) {
		f := newDispatchFixture()

		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.messageRepo.On("GetByID", ctx, int64(42)).Return(approvedMessage(), nil)
		f.ledgerRepo.On("Debit", ctx, "acct-1", int64(24)).Return(repository.ErrInsufficientCredits)

		_, err := f.svc.Send(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeInsufficientCredits)
		f.messageRepo.AssertNotCalled(t, "UpdateGuarded",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.recipientRepo.AssertNotCalled(t, "MarkSentByMessageID", mock.Anything, mock.Anything, mock.Anything)
		f.taskRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("message in a non sendable state is refused", func(t *testing.T) {
		f := newDispatchFixture()

		sent := approvedMessage()
		sent.Status = model.MessageStatusSent

		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.messageRepo.On("GetByID", ctx, int64(42)).Return(sent, nil)

		_, err := f.svc.Send(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeInvalidStateTransition)
		var transition service.InvalidTransitionError
		assert.ErrorAs(t, err, &transition)
		assert.Equal(t, model.MessageStatusSent, transition.From)
		f.ledgerRepo.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejected message cannot be sent", func(t *testing.T) {
		f := newDispatchFixture()

		rejected := approvedMessage()
		rejected.Status = model.MessageStatusRejected

		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.messageRepo.On("GetByID", ctx, int64(42)).Return(rejected, nil)

		_, err := f.svc.Send(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeInvalidStateTransition)
		var transition service.InvalidTransitionError
		assert.ErrorAs(t, err, &transition)
		assert.Equal(t, model.MessageStatusRejected, transition.From)
		f.ledgerRepo.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing message maps to NOT_FOUND", func(t *testing.T) {
		f := newDispatchFixture()

		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.messageRepo.On("GetByID", ctx, int64(42)).Return(nil, repository.ErrMessageNotFound)

		_, err := f.svc.Send(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeNotFound)
	})

	t.Run("message owned by another account maps to NOT_FOUND", func(t *testing.T) {
		f := newDispatchFixture()

		foreign := approvedMessage()
		foreign.AccountID = "acct-2"

		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.messageRepo.On("GetByID", ctx, int64(42)).Return(foreign, nil)

		_, err := f.svc.Send(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeNotFound)
	})

	t.Run("losing the claim to a concurrent send rolls back", func(t *testing.T) {
		f := newDispatchFixture()

		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.messageRepo.On("GetByID", ctx, int64(42)).Return(approvedMessage(), nil)
		f.ledgerRepo.On("Debit", ctx, "acct-1", int64(24)).Return(nil)
		f.messageRepo.On("UpdateGuarded", ctx, mock.AnythingOfType("*model.Message"),
			model.MessageStatusDraft, model.MessageStatusApproved).Return(repository.ErrNoRowsAffected)

		_, err := f.svc.Send(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeInvalidStateTransition)
		f.recipientRepo.AssertNotCalled(t, "MarkSentByMessageID", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDispatch_Cancel(t *testing.T) {
	ctx := context.Background()
	cmd := service.CancelMessageCommand{MessageID: 42, AccountID: "acct-1"}

	t.Run("deletes a draft with its recipients", func(t *testing.T) {
		f := newDispatchFixture()

		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.messageRepo.On("GetByID", ctx, int64(42)).Return(&model.Message{
			ID:        42,
			AccountID: "acct-1",
			Status:    model.MessageStatusDraft,
		}, nil)
		f.recipientRepo.On("CountLeftPending", ctx, int64(42)).Return(0, nil)
		f.recipientRepo.On("DeleteByMessageID", ctx, int64(42)).Return(nil)
		f.messageRepo.On("Delete", ctx, int64(42)).Return(nil)

		err := f.svc.Cancel(ctx, cmd)

		assert.NoError(t, err)
		f.assertExpectations(t)
	})

	t.Run("refuses to cancel a message past DRAFT", func(t *testing.T) {
		f := newDispatchFixture()

		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.messageRepo.On("GetByID", ctx, int64(42)).Return(&model.Message{
			ID:        42,
			AccountID: "acct-1",
			Status:    model.MessageStatusApproved,
		}, nil)

		err := f.svc.Cancel(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeMessageNotEditable)
		f.messageRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("refuses when any recipient already moved", func(t *testing.T) {
		f := newDispatchFixture()

		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.messageRepo.On("GetByID", ctx, int64(42)).Return(&model.Message{
			ID:        42,
			AccountID: "acct-1",
			Status:    model.MessageStatusDraft,
		}, nil)
		f.recipientRepo.On("CountLeftPending", ctx, int64(42)).Return(3, nil)

		err := f.svc.Cancel(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeMessageNotEditable)
		f.recipientRepo.AssertNotCalled(t, "DeleteByMessageID", mock.Anything, mock.Anything)
	})
}

func TestDispatch_DispatchDue(t *testing.T) {
	ctx := context.Background()

	t.Run("claims due scheduled messages and sends them", func(t *testing.T) {
		f := newDispatchFixture()

		due := []model.Message{{ID: 42, AccountID: "acct-1", Status: model.MessageStatusScheduled}}

		f.messageRepo.On("FindDueScheduled", ctx, mock.AnythingOfType("time.Time"), 50).Return(due, nil)

		f.messageRepo.On("UpdateGuarded", ctx, mock.MatchedBy(func(msg *model.Message) bool {
			return msg.ID == 42 && msg.Status == model.MessageStatusApproved
		}), model.MessageStatusScheduled).Return(nil)

		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.messageRepo.On("GetByID", ctx, int64(42)).Return(&model.Message{
			ID:              42,
			AccountID:       "acct-1",
			Content:         "hello",
			Status:          model.MessageStatusApproved,
			TotalRecipients: 1,
		}, nil)
		f.ledgerRepo.On("Debit", ctx, "acct-1", int64(1)).Return(nil)
		f.messageRepo.On("UpdateGuarded", ctx, mock.MatchedBy(func(msg *model.Message) bool {
			return msg.ID == 42 && msg.Status == model.MessageStatusSent
		}), model.MessageStatusDraft, model.MessageStatusApproved).Return(nil)
		f.recipientRepo.On("MarkSentByMessageID", ctx, int64(42), mock.AnythingOfType("time.Time")).Return(nil)
		f.entryRepo.On("Create", ctx, mock.AnythingOfType("*model.LedgerEntry")).Return(nil)
		f.taskRepo.On("Create", ctx, mock.AnythingOfType("*model.SettlementTask")).Return(nil)

		dispatched, err := f.svc.DispatchDue(ctx, 50)

		assert.NoError(t, err)
		assert.Equal(t, 1, dispatched)
		f.assertExpectations(t)
	})

	t.Run("skips messages claimed by another scheduler", func(t *testing.T) {
		f := newDispatchFixture()

		due := []model.Message{{ID: 42, Status: model.MessageStatusScheduled}}

		f.messageRepo.On("FindDueScheduled", ctx, mock.AnythingOfType("time.Time"), 50).Return(due, nil)
		f.messageRepo.On("UpdateGuarded", ctx, mock.AnythingOfType("*model.Message"),
			model.MessageStatusScheduled).Return(repository.ErrNoRowsAffected)

		dispatched, err := f.svc.DispatchDue(ctx, 50)

		assert.NoError(t, err)
		assert.Equal(t, 0, dispatched)
	})

	t.Run("transient send failure returns the message to the schedule", func(t *testing.T) {
		f := newDispatchFixture()

		due := []model.Message{{ID: 42, AccountID: "acct-1", Status: model.MessageStatusScheduled}}

		f.messageRepo.On("FindDueScheduled", ctx, mock.AnythingOfType("time.Time"), 50).Return(due, nil)
		f.messageRepo.On("UpdateGuarded", ctx, mock.MatchedBy(func(msg *model.Message) bool {
			return msg.ID == 42 && msg.Status == model.MessageStatusApproved
		}), model.MessageStatusScheduled).Return(nil)

		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.messageRepo.On("GetByID", ctx, int64(42)).Return(nil, assert.AnError)

		f.messageRepo.On("UpdateGuarded", ctx, mock.MatchedBy(func(msg *model.Message) bool {
			return msg.ID == 42 && msg.Status == model.MessageStatusScheduled
		}), model.MessageStatusApproved).Return(nil)

		dispatched, err := f.svc.DispatchDue(ctx, 50)

		assert.NoError(t, err)
		assert.Equal(t, 0, dispatched)
		f.messageRepo.AssertExpectations(t)
	})

	t.Run("out of credits keeps the message off the schedule", func(t *testing.T) {
		f := newDispatchFixture()

		due := []model.Message{{ID: 42, AccountID: "acct-1", Status: model.MessageStatusScheduled}}

		f.messageRepo.On("FindDueScheduled", ctx, mock.AnythingOfType("time.Time"), 50).Return(due, nil)
		f.messageRepo.On("UpdateGuarded", ctx, mock.MatchedBy(func(msg *model.Message) bool {
			return msg.ID == 42 && msg.Status == model.MessageStatusApproved
		}), model.MessageStatusScheduled).Return(nil)

		f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.messageRepo.On("GetByID", ctx, int64(42)).Return(&model.Message{
			ID:              42,
			AccountID:       "acct-1",
			Content:         "hello",
			Status:          model.MessageStatusApproved,
			TotalRecipients: 1,
		}, nil)
		f.ledgerRepo.On("Debit", ctx, "acct-1", int64(1)).Return(repository.ErrInsufficientCredits)

		dispatched, err := f.svc.DispatchDue(ctx, 50)

		assert.NoError(t, err)
		assert.Equal(t, 0, dispatched)
		f.messageRepo.AssertNumberOfCalls(t, "UpdateGuarded", 1)
	})
}
