package service

import (
	"context"
	"errors"

	"sendit/messenger/internal/model"
	"sendit/messenger/internal/pkg/apperr"
	"sendit/messenger/internal/repository"
)

// lookupError maps a repository lookup failure to NotFound or Internal.
func lookupError(err error, entity string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.New(apperr.CodeNotFound, entity+" not found")
	}
	return apperr.Internal("failed to load "+entity, err)
}

// resolveParticipants projects the participants of each conversation to
// (id, username, phone) in position order, keyed by conversation id.
func resolveParticipants(ctx context.Context, accounts repository.AccountRepository, convs ...model.Conversation) (map[string][]model.ParticipantView, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, c := range convs {
		for _, p := range c.Participants {
			if !seen[p.AccountID] {
				seen[p.AccountID] = true
				ids = append(ids, p.AccountID)
			}
		}
	}

	found, err := accounts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("failed to resolve participants", err)
	}

	byID := make(map[string]model.Account, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}

	views := make(map[string][]model.ParticipantView, len(convs))
	for _, c := range convs {
		list := make([]model.ParticipantView, 0, len(c.Participants))
		for _, p := range c.Participants {
			a := byID[p.AccountID]
			list = append(list, model.ParticipantView{ID: p.AccountID, Username: a.Username, Phone: a.Phone})
		}
		views[c.ID] = list
	}
	return views, nil
}

func messageView(m model.Message) model.MessageView {
	reactions := make([]model.ReactionView, 0, len(m.Reactions))
	for _, r := range m.Reactions {
		reactions = append(reactions, model.ReactionView{SenderID: r.AccountID, Reaction: r.Value})
	}
	return model.MessageView{
		ID:        m.ID,
		Seq:       m.Seq,
		Text:      m.Text,
		Sender:    model.Sender{Name: m.SenderName, Phone: m.SenderPhone},
		SentAt:    m.SentAt,
		Delivered: m.Delivered,
		ReadAt:    m.ReadAt,
		Reactions: reactions,
	}
}
