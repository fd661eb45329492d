package repository

import (
	"context"
	"errors"

	"github.com/abenikeb/biisho-a2p/internal/model"
	"gorm.io/gorm"
)

var ErrSettingNotFound = errors.New("SETTING_NOT_FOUND")

type SettingRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type Setting struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &Setting{db: db}
}

func (r *Setting) Get(ctx context.Context, key string) (string, error) {
	var setting model.Setting

	err := r.db.WithContext(ctx).Where("setting_key = ?", key).First(&setting).Error
	if err == nil {
		return setting.Value, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrSettingNotFound
	}

	return "", err
}

func (r *Setting) Set(ctx context.Context, key, value string) error {
	db := GetTx(ctx, r.db)

	return db.Save(&model.Setting{Key: key, Value: value}).Error
}
