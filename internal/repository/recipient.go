package repository

import (
	"context"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/model"
	"gorm.io/gorm"
)

type RecipientRepository interface {
	CreateBatch(ctx context.Context, recipients []model.Recipient) error
	ListByMessageID(ctx context.Context, messageID int64) ([]model.Recipient, error)
	ListByMessageIDAndStatus(ctx context.Context, messageID int64, status model.RecipientStatus) ([]model.Recipient, error)
	MarkSentByMessageID(ctx context.Context, messageID int64, at time.Time) error
	MarkTerminal(ctx context.Context, id int64, status model.RecipientStatus, reason *string, at time.Time) error
	CountByStatus(ctx context.Context, messageID int64) (map[model.RecipientStatus]int, error)
	CountLeftPending(ctx context.Context, messageID int64) (int, error)
	DeleteByMessageID(ctx context.Context, messageID int64) error
}

type Recipient struct {
	db *gorm.DB
}

func NewRecipientRepository(db *gorm.DB) RecipientRepository {
	return &Recipient{db: db}
}

func (r *Recipient) CreateBatch(ctx context.Context, recipients []model.Recipient) error {
	db := GetTx(ctx, r.db)
	return db.CreateInBatches(recipients, 500).Error
}

func (r *Recipient) ListByMessageID(ctx context.Context, messageID int64) ([]model.Recipient, error) {
	var recipients []model.Recipient

	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("id ASC").
		Find(&recipients).Error
	if err != nil {
		return nil, err
	}

	return recipients, nil
}

func (r *Recipient) ListByMessageIDAndStatus(ctx context.Context, messageID int64,
	status model.RecipientStatus) ([]model.Recipient, error) {
	var recipients []model.Recipient

	err := r.db.WithContext(ctx).
		Where("message_id = ? AND status = ?", messageID, status).
		Order("id ASC").
		Find(&recipients).Error
	if err != nil {
		return nil, err
	}

	return recipients, nil
}

func (r *Recipient) MarkSentByMessageID(ctx context.Context, messageID int64, at time.Time) error {
	db := GetTx(ctx, r.db)

	return db.Model(&model.Recipient{}).
		Where("message_id = ? AND status = ?", messageID, model.RecipientStatusPending).
		Updates(map[string]interface{}{
			"status":     model.RecipientStatusSent,
			"updated_at": at,
		}).Error
}

// MarkTerminal moves a single recipient sent -> delivered|failed. The status
// guard keeps the move forward-only and makes re-settlement a no-op.
func (r *Recipient) MarkTerminal(ctx context.Context, id int64, status model.RecipientStatus,
	reason *string, at time.Time) error {
	db := GetTx(ctx, r.db)

	result := db.Model(&model.Recipient{}).
		Where("id = ? AND status = ?", id, model.RecipientStatusSent).
		Updates(map[string]interface{}{
			"status":         status,
			"failure_reason": reason,
			"terminal_at":    at,
			"updated_at":     at,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

func (r *Recipient) CountByStatus(ctx context.Context, messageID int64) (map[model.RecipientStatus]int, error) {
	db := GetTx(ctx, r.db)

	var rows []struct {
		Status model.RecipientStatus
		Total  int
	}

	err := db.Model(&model.Recipient{}).
		Select("status, COUNT(*) AS total").
		Where("message_id = ?", messageID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.RecipientStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}

	return counts, nil
}

// CountLeftPending counts recipients that have left PENDING, used by the
// cancellation guard.
func (r *Recipient) CountLeftPending(ctx context.Context, messageID int64) (int, error) {
	db := GetTx(ctx, r.db)

	var count int64
	err := db.Model(&model.Recipient{}).
		Where("message_id = ? AND status <> ?", messageID, model.RecipientStatusPending).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return int(count), nil
}

func (r *Recipient) DeleteByMessageID(ctx context.Context, messageID int64) error {
	db := GetTx(ctx, r.db)
	return db.Where("message_id = ?", messageID).Delete(&model.Recipient{}).Error
}
