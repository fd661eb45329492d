package service

import (
	"context"
	"errors"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/audit"
	"github.com/abenikeb/biisho-a2p/internal/constants"
	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/abenikeb/biisho-a2p/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LedgerService interface {
	Purchase(ctx context.Context, cmd PurchaseCreditsCommand) (BalanceResponse, error)
	Balance(ctx context.Context, accountID string) (BalanceResponse, error)
	Entries(ctx context.Context, query GetEntriesQuery) ([]model.LedgerEntry, error)
}

type ledger struct {
	ledgerRepo repository.CreditLedgerRepository
	entryRepo  repository.LedgerEntryRepository
	txManager  repository.TxManager
	auditor    audit.Emitter
	logger     *zap.Logger
}

func NewLedgerService(ledgerRepo repository.CreditLedgerRepository, entryRepo repository.LedgerEntryRepository,
	txManager repository.TxManager, auditor audit.Emitter, logger *zap.Logger) LedgerService {
	return &ledger{ledgerRepo: ledgerRepo, entryRepo: entryRepo, txManager: txManager,
		auditor: auditor, logger: logger}
}

func (l *ledger) Purchase(ctx context.Context, cmd PurchaseCreditsCommand) (BalanceResponse, error) {
	if cmd.Credits <= 0 {
		return BalanceResponse{}, NewServiceError(constants.ErrCodeInvalidRequestBody,
			errors.New("credits must be positive"))
	}

	kind := cmd.Kind
	if kind == "" {
		kind = model.EntryKindPurchase
	}

	idempotencyKey := cmd.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	err := l.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := l.applyCredit(ctx, cmd, kind); err != nil {
			return err
		}

		entry := model.LedgerEntry{
			AccountID:      cmd.AccountID,
			Kind:           kind,
			CreditDelta:    cmd.Credits,
			AmountDelta:    cmd.AmountPaid,
			Status:         model.EntryStatusCompleted,
			IdempotencyKey: idempotencyKey,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}

		if err := l.entryRepo.Create(ctx, &entry); err != nil {
			if errors.Is(err, repository.ErrEntryDuplicate) {
				return repository.ErrEntryDuplicate
			}
			return err
		}

		return nil
	})

	if errors.Is(err, repository.ErrEntryDuplicate) {
		// Replay. The whole transaction rolled back, so nothing was credited
		// twice; verify the replay matches the original request.
		if verifyErr := l.verifyReplay(ctx, cmd, idempotencyKey); verifyErr != nil {
			return BalanceResponse{}, verifyErr
		}
		return l.Balance(ctx, cmd.AccountID)
	}

	if err != nil {
		var svcErr Error
		if errors.As(err, &svcErr) {
			return BalanceResponse{}, err
		}

		l.logger.Error("Credit purchase failed",
			zap.String("accountID", cmd.AccountID),
			zap.Int64("credits", cmd.Credits),
			zap.Error(err))
		return BalanceResponse{}, NewServiceError(constants.ErrCodeInternalError, err)
	}

	l.auditor.Emit(ctx, audit.Event{
		Kind:      audit.EventCreditsPurchased,
		AccountID: cmd.AccountID,
	})

	return l.Balance(ctx, cmd.AccountID)
}

// applyCredit moves the ledger for a credit-side entry. Purchases and
// bonuses raise granted; refunds give previously spent credits back by
// lowering consumed.
func (l *ledger) applyCredit(ctx context.Context, cmd PurchaseCreditsCommand, kind model.LedgerEntryKind) error {
	if kind == model.EntryKindRefund {
		err := l.ledgerRepo.ReverseConsumption(ctx, cmd.AccountID, cmd.Credits)
		if errors.Is(err, repository.ErrLedgerNotFound) {
			// Also hit when the refund exceeds what was consumed.
			return NewServiceError(constants.ErrCodeInvalidRequestBody,
				errors.New("refund exceeds consumed credits"))
		}
		return err
	}

	err := l.ledgerRepo.Grant(ctx, cmd.AccountID, cmd.Credits)
	if errors.Is(err, repository.ErrLedgerNotFound) {
		// First credit for this account provisions the ledger row.
		err = l.ledgerRepo.Create(ctx, &model.CreditLedger{
			AccountID: cmd.AccountID,
			Granted:   cmd.Credits,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
		if errors.Is(err, repository.ErrLedgerExists) {
			// Lost the provisioning race; the row exists now.
			return l.ledgerRepo.Grant(ctx, cmd.AccountID, cmd.Credits)
		}
	}

	return err
}

func (l *ledger) verifyReplay(ctx context.Context, cmd PurchaseCreditsCommand, key string) error {
	existing, err := l.entryRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return NewServiceError(constants.ErrCodeInternalError, err)
	}

	if existing.AccountID != cmd.AccountID || existing.CreditDelta != cmd.Credits {
		return NewServiceError(constants.ErrCodeInvalidRequestBody,
			errors.New("idempotency key reused with a different request"))
	}

	l.logger.Warn("Duplicate credit request ignored",
		zap.String("accountID", cmd.AccountID),
		zap.String("idempotencyKey", key))

	return nil
}

func (l *ledger) Entries(ctx context.Context, query GetEntriesQuery) ([]model.LedgerEntry, error) {
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	entries, err := l.entryRepo.ListByAccountID(ctx, query.AccountID, limit, query.Offset)
	if err != nil {
		return nil, NewServiceError(constants.ErrCodeInternalError, err)
	}

	return entries, nil
}

func (l *ledger) Balance(ctx context.Context, accountID string) (BalanceResponse, error) {
	row, err := l.ledgerRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrLedgerNotFound) {
			return BalanceResponse{}, NewServiceError(constants.ErrCodeNotFound, ErrAccountNotFound)
		}

		return BalanceResponse{}, NewServiceError(constants.ErrCodeInternalError, err)
	}

	return BalanceResponse{
		AccountID: row.AccountID,
		Granted:   row.Granted,
		Consumed:  row.Consumed,
		Available: row.Available(),
	}, nil
}
