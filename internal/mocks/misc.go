package mocks

import (
	"context"

	"github.com/abenikeb/biisho-a2p/internal/audit"
	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/abenikeb/biisho-a2p/pkg/contacts"
	"github.com/stretchr/testify/mock"
)

type SenderIdentityRepository struct {
	mock.Mock
}

func (m *SenderIdentityRepository) Create(ctx context.Context, identity *model.SenderIdentity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *SenderIdentityRepository) GetByID(ctx context.Context, id int64) (*model.SenderIdentity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SenderIdentity), args.Error(1)
}

type SettingRepository struct {
	mock.Mock
}

func (m *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *SettingRepository) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type ContactsClient struct {
	mock.Mock
}

func (m *ContactsClient) ListMembers(ctx context.Context, accountID string, listID string) ([]contacts.Member, error) {
	args := m.Called(ctx, accountID, listID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contacts.Member), args.Error(1)
}

type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, exchange string, routingKey string, body []byte) error {
	args := m.Called(ctx, exchange, routingKey, body)
	return args.Error(0)
}

func (m *Publisher) PublishJSON(ctx context.Context, exchange string, routingKey string, payload any) error {
	args := m.Called(ctx, exchange, routingKey, payload)
	return args.Error(0)
}

type AuditEmitter struct {
	mock.Mock
}

func (m *AuditEmitter) Emit(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}
