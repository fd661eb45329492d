package repository

import (
	"context"
	"errors"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var ErrMessageNotFound = errors.New("MESSAGE_NOT_FOUND")
var ErrMessageDuplicate = errors.New("MESSAGE_DUPLICATE")
var ErrNoRowsAffected = errors.New("NO_ROWS_AFFECTED")

type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	// UpdateGuarded applies updates only while the row is still in one of
	// fromStatuses; zero matched rows surface as ErrNoRowsAffected.
	UpdateGuarded(ctx context.Context, message *model.Message, fromStatuses ...model.MessageStatus) error
	GetByID(ctx context.Context, id int64) (*model.Message, error)
	GetByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Message, error)
	CountByAccountID(ctx context.Context, accountID string) (int, error)
	FindDueScheduled(ctx context.Context, dueBefore time.Time, limit int) ([]model.Message, error)
	Delete(ctx context.Context, id int64) error
	UpdateAggregates(ctx context.Context, id int64, delivered, failed int, status model.MessageStatus, completedAt time.Time) error
}

type Message struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &Message{db: db}
}

func (m *Message) Create(ctx context.Context, message *model.Message) error {
	db := GetTx(ctx, m.db)

	err := db.Create(message).Error
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrMessageDuplicate
	}

	return err
}

func (m *Message) UpdateGuarded(ctx context.Context, message *model.Message, fromStatuses ...model.MessageStatus) error {
	db := GetTx(ctx, m.db)

	result := db.Model(message).
		Where("id = ? AND status IN ?", message.ID, fromStatuses).
		Updates(message)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

func (m *Message) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	db := GetTx(ctx, m.db)

	var message model.Message
	err := db.Where("id = ?", id).First(&message).Error
	if err == nil {
		return &message, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}

	return nil, err
}

func (m *Message) GetByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Message, error) {
	var messages []model.Message

	err := m.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (m *Message) CountByAccountID(ctx context.Context, accountID string) (int, error) {
	var count int64

	err := m.db.WithContext(ctx).Model(&model.Message{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return int(count), nil
}

func (m *Message) FindDueScheduled(ctx context.Context, dueBefore time.Time, limit int) ([]model.Message, error) {
	var messages []model.Message

	err := m.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", model.MessageStatusScheduled, dueBefore).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (m *Message) Delete(ctx context.Context, id int64) error {
	db := GetTx(ctx, m.db)

	result := db.Where("id = ?", id).Delete(&model.Message{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// UpdateAggregates rolls settlement counts into the message and flips it to
// its terminal status. The SENT guard makes the flip fire exactly once even
// when a settlement task is redelivered.
func (m *Message) UpdateAggregates(ctx context.Context, id int64, delivered, failed int,
	status model.MessageStatus, completedAt time.Time) error {
	db := GetTx(ctx, m.db)

	result := db.Model(&model.Message{}).
		Where("id = ? AND status = ?", id, model.MessageStatusSent).
		Updates(map[string]interface{}{
			"delivered_count": delivered,
			"failed_count":    failed,
			"status":          status,
			"completed_at":    completedAt,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}
