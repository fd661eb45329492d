package repository

import (
	"context"
	"errors"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/model"
	"gorm.io/gorm"
)

var ErrTaskNotFound = errors.New("SETTLEMENT_TASK_NOT_FOUND")

type SettlementTaskRepository interface {
	Create(ctx context.Context, task *model.SettlementTask) error
	GetByID(ctx context.Context, id string) (*model.SettlementTask, error)
	FindPending(ctx context.Context, limit int) ([]model.SettlementTask, error)
	// FindStalePublished returns tasks shipped to the queue that never
	// reached DONE within the stale window, for re-publication.
	FindStalePublished(ctx context.Context, olderThan time.Time, limit int) ([]model.SettlementTask, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
	MarkDone(ctx context.Context, id string) error
	RecordError(ctx context.Context, id string, lastError string) error
}

type SettlementTask struct {
	db *gorm.DB
}

func NewSettlementTaskRepository(db *gorm.DB) SettlementTaskRepository {
	return &SettlementTask{db: db}
}

func (r *SettlementTask) Create(ctx context.Context, task *model.SettlementTask) error {
	db := GetTx(ctx, r.db)
	return db.Create(task).Error
}

func (r *SettlementTask) GetByID(ctx context.Context, id string) (*model.SettlementTask, error) {
	var task model.SettlementTask

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if err == nil {
		return &task, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}

	return nil, err
}

func (r *SettlementTask) FindPending(ctx context.Context, limit int) ([]model.SettlementTask, error) {
	var tasks []model.SettlementTask

	err := r.db.WithContext(ctx).
		Where("state = ?", model.SettlementTaskStatePending).
		Order("created_at ASC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *SettlementTask) FindStalePublished(ctx context.Context, olderThan time.Time, limit int) ([]model.SettlementTask, error) {
	var tasks []model.SettlementTask

	err := r.db.WithContext(ctx).
		Where("state = ? AND published_at < ?", model.SettlementTaskStatePublished, olderThan).
		Order("published_at ASC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *SettlementTask) MarkPublished(ctx context.Context, id string, at time.Time) error {
	db := GetTx(ctx, r.db)

	result := db.Model(&model.SettlementTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":        model.SettlementTaskStatePublished,
			"published_at": at,
			"attempts":     gorm.Expr("attempts + 1"),
			"updated_at":   time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

func (r *SettlementTask) MarkDone(ctx context.Context, id string) error {
	db := GetTx(ctx, r.db)

	result := db.Model(&model.SettlementTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":      model.SettlementTaskStateDone,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

func (r *SettlementTask) RecordError(ctx context.Context, id string, lastError string) error {
	db := GetTx(ctx, r.db)

	return db.Model(&model.SettlementTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_error": lastError,
			"updated_at": time.Now(),
		}).Error
}
