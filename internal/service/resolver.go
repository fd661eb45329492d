package service

import (
	"context"
	"strings"

	"github.com/abenikeb/biisho-a2p/internal/constants"
	"github.com/abenikeb/biisho-a2p/pkg/contacts"
	"go.uber.org/zap"
)

const contactStatusActive = "active"

type ResolvedRecipient struct {
	Address string
	Name    string
}

// RecipientResolver expands a send request into the final recipient set:
// explicit recipients unioned with active members of the referenced contact
// lists, deduplicated by address with first-seen-wins name snapshots. It must
// run before costing.
type RecipientResolver interface {
	Resolve(ctx context.Context, accountID string, explicit []RecipientInput, listIDs []string) ([]ResolvedRecipient, error)
}

type recipientResolver struct {
	contacts contacts.Client
	logger   *zap.Logger
}

func NewRecipientResolver(contactsClient contacts.Client, logger *zap.Logger) RecipientResolver {
	return &recipientResolver{contacts: contactsClient, logger: logger}
}

func (r *recipientResolver) Resolve(ctx context.Context, accountID string,
	explicit []RecipientInput, listIDs []string) ([]ResolvedRecipient, error) {

	seen := make(map[string]struct{})
	resolved := make([]ResolvedRecipient, 0, len(explicit))

	add := func(address, name string) {
		address = strings.TrimSpace(address)
		if address == "" {
			return
		}
		if _, dup := seen[address]; dup {
			return
		}
		seen[address] = struct{}{}
		resolved = append(resolved, ResolvedRecipient{Address: address, Name: name})
	}

	for _, input := range explicit {
		add(input.Address, input.Name)
	}

	for _, listID := range listIDs {
		members, err := r.contacts.ListMembers(ctx, accountID, listID)
		if err != nil {
			r.logger.Error("Failed to resolve contact list",
				zap.String("accountID", accountID),
				zap.String("listID", listID),
				zap.Error(err))
			return nil, NewServiceError(constants.ErrCodeDispatchFailed, err)
		}

		for _, member := range members {
			if member.Status != contactStatusActive {
				continue
			}
			add(member.Address, member.Name)
		}
	}

	if len(resolved) == 0 {
		return nil, NewServiceError(constants.ErrCodeNoRecipients, ErrNoRecipients)
	}

	return resolved, nil
}
