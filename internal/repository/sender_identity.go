package repository

import (
	"context"
	"errors"

	"github.com/abenikeb/biisho-a2p/internal/model"
	"gorm.io/gorm"
)

var ErrSenderIdentityNotFound = errors.New("SENDER_IDENTITY_NOT_FOUND")

type SenderIdentityRepository interface {
	Create(ctx context.Context, identity *model.SenderIdentity) error
	GetByID(ctx context.Context, id int64) (*model.SenderIdentity, error)
}

type SenderIdentity struct {
	db *gorm.DB
}

func NewSenderIdentityRepository(db *gorm.DB) SenderIdentityRepository {
	return &SenderIdentity{db: db}
}

func (r *SenderIdentity) Create(ctx context.Context, identity *model.SenderIdentity) error {
	db := GetTx(ctx, r.db)
	return db.Create(identity).Error
}

func (r *SenderIdentity) GetByID(ctx context.Context, id int64) (*model.SenderIdentity, error) {
	var identity model.SenderIdentity

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&identity).Error
	if err == nil {
		return &identity, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSenderIdentityNotFound
	}

	return nil, err
}
