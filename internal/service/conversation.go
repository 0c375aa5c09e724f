package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"sendit/messenger/internal/model"
	"sendit/messenger/internal/pkg/apperr"
	"sendit/messenger/internal/repository"
)

// CreatedConversation is the result of creating a conversation or group.
type CreatedConversation struct {
	ConversationID string   `json:"conversationId"`
	Participants   []string `json:"participants"`
}

type conversationService struct {
	store  repository.Store
	cache  repository.ConversationCacheRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewConversationService returns the conversation engine. cache may be nil.
func NewConversationService(store repository.Store, cache repository.ConversationCacheRepository, logger *slog.Logger) ConversationService {
	return &conversationService{
		store:  store,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

func (s *conversationService) CreateConversation(ctx context.Context, creatorID string, input CreateConversationInput) (*CreatedConversation, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	creator, err := s.store.Accounts().FindByID(ctx, creatorID)
	if err != nil {
		return nil, lookupError(err, "User")
	}

	phones := uniquePhones(input.Participants)
	byPhone, err := s.resolvePhones(ctx, phones)
	if err != nil {
		return nil, err
	}

	members := []model.Account{*creator}
	for _, phone := range phones {
		account, ok := byPhone[phone]
		if !ok {
			return nil, apperr.WithMetadata(apperr.CodeNotFound,
				"No user found with phone "+phone, map[string]string{"phone": phone})
		}
		if account.ID != creator.ID {
			members = append(members, account)
		}
	}

	if err := checkMembers(len(members), input.Name); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	initial := &model.Message{
		ID:          uuid.NewString(),
		Seq:         1,
		Text:        input.Message,
		SenderName:  creator.Username,
		SenderPhone: creator.Phone,
		SentAt:      now,
	}

	return s.create(ctx, "conversation", input.Name, members, initial)
}

func (s *conversationService) CreateGroup(ctx context.Context, creatorID string, input CreateGroupInput) (*CreatedConversation, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if _, err := s.store.Accounts().FindByID(ctx, creatorID); err != nil {
		return nil, lookupError(err, "User")
	}

	phones := uniquePhones(input.Participants)
	byPhone, err := s.resolvePhones(ctx, phones)
	if err != nil {
		return nil, err
	}

	if len(byPhone) != len(phones) {
		return nil, apperr.WithMetadata(apperr.CodeParticipantMismatch,
			fmt.Sprintf("Only %d of %d participants were found", len(byPhone), len(phones)),
			map[string]string{
				"resolved":  strconv.Itoa(len(byPhone)),
				"requested": strconv.Itoa(len(phones)),
			})
	}

	members := make([]model.Account, 0, len(phones))
	for _, phone := range phones {
		members = append(members, byPhone[phone])
	}

	if err := checkMembers(len(members), input.Name); err != nil {
		return nil, err
	}

	return s.create(ctx, "group", input.Name, members, nil)
}

func uniquePhones(phones []string) []string {
	seen := make(map[string]bool, len(phones))
	unique := make([]string, 0, len(phones))
	for _, p := range phones {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		unique = append(unique, p)
	}
	return unique
}

func (s *conversationService) resolvePhones(ctx context.Context, phones []string) (map[string]model.Account, error) {
	accounts, err := s.store.Accounts().FindByPhones(ctx, phones)
	if err != nil {
		return nil, apperr.Internal("failed to resolve participants", err)
	}
	byPhone := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byPhone[a.Phone] = a
	}
	return byPhone, nil
}

func checkMembers(count int, name string) error {
	if count < 2 {
		return apperr.WithMetadata(apperr.CodeValidation,
			"A conversation needs at least 2 participants", map[string]string{"participants": "min"})
	}
	if count > 2 && strings.TrimSpace(name) == "" {
		return apperr.WithMetadata(apperr.CodeValidation,
			"A name is required for conversations with more than 2 participants", map[string]string{"name": "required"})
	}
	return nil
}

// create writes the thread, the optional initial message, the conversation
// and every participant link in one transaction, then checks that the
// outcome is all or nothing.
func (s *conversationService) create(ctx context.Context, kind, name string, members []model.Account, initial *model.Message) (*CreatedConversation, error) {
	thread := &model.MessageThread{ID: uuid.NewString()}
	conv := &model.Conversation{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		ThreadID:  thread.ID,
		CreatedAt: s.now().UTC(),
	}

	memberIDs := make([]string, 0, len(members))
	for i, m := range members {
		memberIDs = append(memberIDs, m.ID)
		conv.Participants = append(conv.Participants, model.ConversationParticipant{
			ConversationID: conv.ID,
			AccountID:      m.ID,
			Position:       i,
		})
	}

	if initial != nil {
		initial.ThreadID = thread.ID
		thread.MessageCount = 1
	}

	txErr := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Conversations().CreateThread(ctx, thread); err != nil {
			return fmt.Errorf("create thread: %w", err)
		}
		if initial != nil {
			if err := tx.Conversations().AddMessage(ctx, initial); err != nil {
				return fmt.Errorf("add initial message: %w", err)
			}
		}
		if err := tx.Conversations().CreateConversation(ctx, conv); err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		for _, id := range memberIDs {
			if err := tx.Accounts().LinkConversation(ctx, id, conv.ID); err != nil {
				return fmt.Errorf("link participant %s: %w", id, err)
			}
		}
		return nil
	})

	if txErr != nil {
		if err := s.verifyNothingPersisted(ctx, conv.ID, thread.ID); err != nil {
			return nil, s.consistencyError(ctx, conv.ID, err)
		}
		return nil, apperr.Internal("failed to create conversation", txErr)
	}

	if err := s.verifyPersisted(ctx, conv.ID, thread.ID, len(memberIDs)); err != nil {
		return nil, s.consistencyError(ctx, conv.ID, err)
	}

	conversationsCreatedTotal.WithLabelValues(kind).Inc()
	s.logger.InfoContext(ctx, "conversation created",
		"conversation_id", conv.ID, "kind", kind, "participants", len(memberIDs))

	return &CreatedConversation{ConversationID: conv.ID, Participants: memberIDs}, nil
}

func (s *conversationService) verifyPersisted(ctx context.Context, convID, threadID string, members int) error {
	conv, err := s.store.Conversations().FindByID(ctx, convID)
	if err != nil {
		return fmt.Errorf("conversation not readable: %w", err)
	}
	if conv.ThreadID != threadID {
		return fmt.Errorf("conversation points at thread %s, want %s", conv.ThreadID, threadID)
	}
	if len(conv.Participants) != members {
		return fmt.Errorf("conversation has %d participants, want %d", len(conv.Participants), members)
	}
	if _, err := s.store.Conversations().FindThread(ctx, threadID); err != nil {
		return fmt.Errorf("thread not readable: %w", err)
	}
	links, err := s.store.Accounts().CountConversationLinks(ctx, convID)
	if err != nil {
		return fmt.Errorf("chat links not readable: %w", err)
	}
	if links != int64(members) {
		return fmt.Errorf("conversation linked to %d accounts, want %d", links, members)
	}
	return nil
}

func (s *conversationService) verifyNothingPersisted(ctx context.Context, convID, threadID string) error {
	exists, err := s.store.Conversations().Exists(ctx, convID)
	if err != nil {
		return fmt.Errorf("conversation not checkable: %w", err)
	}
	if exists {
		return errors.New("conversation survived rollback")
	}
	if _, err := s.store.Conversations().FindThread(ctx, threadID); !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("thread survived rollback: %v", err)
	}
	links, err := s.store.Accounts().CountConversationLinks(ctx, convID)
	if err != nil {
		return fmt.Errorf("chat links not checkable: %w", err)
	}
	if links != 0 {
		return fmt.Errorf("%d chat links survived rollback", links)
	}
	return nil
}

func (s *conversationService) consistencyError(ctx context.Context, convID string, cause error) error {
	consistencyErrorsTotal.Inc()
	s.logger.ErrorContext(ctx, "partial conversation write detected",
		"integrity", true, "conversation_id", convID, "error", cause)
	return apperr.Wrap(apperr.CodeConsistency, "conversation was only partially created", cause)
}

func (s *conversationService) GetConversation(ctx context.Context, conversationID string) (*model.ConversationView, error) {
	conv, err := s.store.Conversations().FindByID(ctx, conversationID)
	if err != nil {
		return nil, lookupError(err, "Conversation")
	}

	thread, err := s.store.Conversations().FindThread(ctx, conv.ThreadID)
	if err != nil {
		return nil, lookupError(err, "Message thread")
	}

	if s.cache != nil {
		view, found, err := s.cache.Get(ctx, conv.ID, thread.Version)
		if err != nil {
			s.logger.WarnContext(ctx, "conversation cache read failed", "conversation_id", conv.ID, "error", err)
		} else if found {
			return view, nil
		}
	}

	view, err := s.buildView(ctx, conv, thread)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, view); err != nil {
			s.logger.WarnContext(ctx, "conversation cache write failed", "conversation_id", conv.ID, "error", err)
		}
	}

	return view, nil
}

func (s *conversationService) buildView(ctx context.Context, conv *model.Conversation, thread *model.MessageThread) (*model.ConversationView, error) {
	participants, err := resolveParticipants(ctx, s.store.Accounts(), *conv)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.Conversations().ListMessages(ctx, thread.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load messages", err)
	}

	views := make([]model.MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView(m))
	}

	return &model.ConversationView{
		ID:           conv.ID,
		Name:         conv.Name,
		CreatedAt:    conv.CreatedAt,
		Participants: participants[conv.ID],
		Thread: model.ThreadView{
			ID:           thread.ID,
			MessageCount: thread.MessageCount,
			Version:      thread.Version,
			LastUpdated:  thread.UpdatedAt,
			Messages:     views,
		},
	}, nil
}

func (s *conversationService) AppendMessage(ctx context.Context, conversationID, senderID string, input AppendMessageInput) (*model.ConversationView, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	sender, err := s.store.Accounts().FindByID(ctx, senderID)
	if err != nil {
		return nil, lookupError(err, "User")
	}

	conv, err := s.store.Conversations().FindByID(ctx, conversationID)
	if err != nil {
		return nil, lookupError(err, "Conversation")
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		thread, err := tx.Conversations().LockThread(ctx, conv.ThreadID)
		if err != nil {
			return err
		}

		msg := &model.Message{
			ID:          uuid.NewString(),
			ThreadID:    thread.ID,
			Seq:         thread.MessageCount + 1,
			Text:        input.Message,
			SenderName:  sender.Username,
			SenderPhone: sender.Phone,
			SentAt:      s.now().UTC(),
		}
		if err := tx.Conversations().AddMessage(ctx, msg); err != nil {
			return err
		}

		return tx.Conversations().BumpThread(ctx, thread, 1)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, lookupError(err, "Message thread")
		}
		return nil, apperr.Internal("failed to append message", err)
	}

	messagesAppendedTotal.Inc()

	return s.GetConversation(ctx, conv.ID)
}

var errMessageNotFound = errors.New("message not found in thread")

func (s *conversationService) ApplyReaction(ctx context.Context, conversationID string, input ReactionInput) error {
	if err := validateInput(input); err != nil {
		return err
	}

	if _, err := s.store.Accounts().FindByID(ctx, input.SenderID); err != nil {
		return lookupError(err, "User")
	}

	conv, err := s.store.Conversations().FindByID(ctx, conversationID)
	if err != nil {
		return lookupError(err, "Conversation")
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		thread, err := tx.Conversations().LockThread(ctx, conv.ThreadID)
		if err != nil {
			return err
		}

		_, found, err := tx.Conversations().FindMessageInThread(ctx, thread.ID, input.MessageID)
		if err != nil {
			return err
		}
		if !found {
			return errMessageNotFound
		}

		reaction := &model.Reaction{
			MessageID: input.MessageID,
			AccountID: input.SenderID,
			Value:     input.Reaction,
			UpdatedAt: s.now().UTC(),
		}
		if err := tx.Conversations().UpsertReaction(ctx, reaction); err != nil {
			return err
		}

		return tx.Conversations().BumpThread(ctx, thread, 0)
	})
	switch {
	case err == nil:
	case errors.Is(err, errMessageNotFound):
		return apperr.New(apperr.CodeNotFound, "Message not found")
	case errors.Is(err, repository.ErrNotFound):
		return lookupError(err, "Message thread")
	default:
		return apperr.Internal("failed to apply reaction", err)
	}

	reactionsAppliedTotal.Inc()
	return nil
}
