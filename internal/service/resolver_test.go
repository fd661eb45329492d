package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/abenikeb/biisho-a2p/internal/constants"
	"github.com/abenikeb/biisho-a2p/internal/mocks"
	"github.com/abenikeb/biisho-a2p/internal/service"
	"github.com/abenikeb/biisho-a2p/pkg/contacts"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRecipientResolver_Resolve(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("resolves explicit recipients without contact lists", func(t *testing.T) {
		mockContacts := &mocks.ContactsClient{}
		resolver := service.NewRecipientResolver(mockContacts, logger)

		explicit := []service.RecipientInput{
			{Address: "+251911000001", Name: "Abel"},
			{Address: "+251911000002", Name: "Beza"},
		}

		resolved, err := resolver.Resolve(ctx, "acct-1", explicit, nil)

		assert.NoError(t, err)
		assert.Len(t, resolved, 2)
		assert.Equal(t, "+251911000001", resolved[0].Address)
		mockContacts.AssertExpectations(t)
	})

	t.Run("deduplicates by address keeping the first name seen", func(t *testing.T) {
		mockContacts := &mocks.ContactsClient{}
		resolver := service.NewRecipientResolver(mockContacts, logger)

		explicit := []service.RecipientInput{
			{Address: "+251911000001", Name: "Abel"},
			{Address: "+251911000001", Name: "Abel Duplicate"},
		}

		mockContacts.On("ListMembers", ctx, "acct-1", "list-1").Return([]contacts.Member{
			{Address: "+251911000001", Name: "Abel From List", Status: "active"},
			{Address: "+251911000003", Name: "Chaltu", Status: "active"},
		}, nil)

		resolved, err := resolver.Resolve(ctx, "acct-1", explicit, []string{"list-1"})

		assert.NoError(t, err)
		assert.Len(t, resolved, 2)
		assert.Equal(t, "Abel", resolved[0].Name)
		assert.Equal(t, "+251911000003", resolved[1].Address)
		mockContacts.AssertExpectations(t)
	})

	t.Run("filters inactive list members", func(t *testing.T) {
		mockContacts := &mocks.ContactsClient{}
		resolver := service.NewRecipientResolver(mockContacts, logger)

		mockContacts.On("ListMembers", ctx, "acct-1", "list-1").Return([]contacts.Member{
			{Address: "+251911000001", Name: "Abel", Status: "active"},
			{Address: "+251911000002", Name: "Beza", Status: "unsubscribed"},
		}, nil)

		resolved, err := resolver.Resolve(ctx, "acct-1", nil, []string{"list-1"})

		assert.NoError(t, err)
		assert.Len(t, resolved, 1)
		assert.Equal(t, "+251911000001", resolved[0].Address)
		mockContacts.AssertExpectations(t)
	})

	t.Run("skips blank addresses", func(t *testing.T) {
		mockContacts := &mocks.ContactsClient{}
		resolver := service.NewRecipientResolver(mockContacts, logger)

		explicit := []service.RecipientInput{
			{Address: "  ", Name: "Nobody"},
			{Address: "+251911000001", Name: "Abel"},
		}

		resolved, err := resolver.Resolve(ctx, "acct-1", explicit, nil)

		assert.NoError(t, err)
		assert.Len(t, resolved, 1)
	})

	t.Run("returns NO_RECIPIENTS when nothing resolves", func(t *testing.T) {
		mockContacts := &mocks.ContactsClient{}
		resolver := service.NewRecipientResolver(mockContacts, logger)

		mockContacts.On("ListMembers", ctx, "acct-1", "list-1").Return([]contacts.Member{}, nil)

		resolved, err := resolver.Resolve(ctx, "acct-1", nil, []string{"list-1"})

		assert.Nil(t, resolved)
		var svcErr service.Error
		assert.ErrorAs(t, err, &svcErr)
		assert.Equal(t, constants.ErrCodeNoRecipients, svcErr.Code)
	})

	t.Run("returns DISPATCH_FAILED when the contact store errors", func(t *testing.T) {
		mockContacts := &mocks.ContactsClient{}
		resolver := service.NewRecipientResolver(mockContacts, logger)

		mockContacts.On("ListMembers", ctx, "acct-1", "list-1").
			Return(nil, errors.New("connection refused"))

		resolved, err := resolver.Resolve(ctx, "acct-1", []service.RecipientInput{
			{Address: "+251911000001"},
		}, []string{"list-1"})

		assert.Nil(t, resolved)
		var svcErr service.Error
		assert.ErrorAs(t, err, &svcErr)
		assert.Equal(t, constants.ErrCodeDispatchFailed, svcErr.Code)
	})
}
