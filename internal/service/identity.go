package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"sendit/messenger/internal/model"
	"sendit/messenger/internal/pkg/apperr"
	"sendit/messenger/internal/pkg/auth"
	"sendit/messenger/internal/repository"
)

// TokenGenerator issues signed, time-limited credentials.
type TokenGenerator interface {
	GenerateToken(userID, email string) (string, error)
}

type identityService struct {
	store    repository.Store
	verifier auth.CredentialVerifier
	tokens   TokenGenerator
	logger   *slog.Logger
}

func NewIdentityService(store repository.Store, verifier auth.CredentialVerifier, tokens TokenGenerator, logger *slog.Logger) IdentityService {
	return &identityService{
		store:    store,
		verifier: verifier,
		tokens:   tokens,
		logger:   logger,
	}
}

func (s *identityService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	accounts := s.store.Accounts()

	field, err := accounts.TakenIdentity(ctx, input.Username, input.Phone, input.Email)
	if err != nil {
		return nil, apperr.Internal("failed to check existing accounts", err)
	}
	if field != "" {
		return nil, duplicateIdentity(field)
	}

	hash, err := s.verifier.Hash(input.Password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	account := &model.Account{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Phone:        input.Phone,
		Email:        input.Email,
		PasswordHash: hash,
	}

	if err := accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race with a concurrent signup
			field, _ := accounts.TakenIdentity(ctx, input.Username, input.Phone, input.Email)
			return nil, duplicateIdentity(field)
		}
		return nil, apperr.Internal("failed to create account", err)
	}

	signupsTotal.Inc()
	s.logger.InfoContext(ctx, "account registered", "user_id", account.ID)

	return issueToken(s.tokens, account)
}

func duplicateIdentity(field string) error {
	if field == "" {
		return apperr.New(apperr.CodeDuplicateIdentity, "User already exists")
	}
	return apperr.WithMetadata(apperr.CodeDuplicateIdentity,
		"User with this "+field+" already exists", map[string]string{"field": field})
}

func issueToken(tokens TokenGenerator, account *model.Account) (*AuthResult, error) {
	token, err := tokens.GenerateToken(account.ID, account.Email)
	if err != nil {
		return nil, apperr.Internal("failed to generate token", err)
	}
	return &AuthResult{Token: token, Account: account.Profile()}, nil
}

func (s *identityService) VerifyCredential(ctx context.Context, email, password string) (*model.Account, error) {
	account, err := s.store.Accounts().FindByEmail(ctx, email)
	if err != nil {
		return nil, lookupError(err, "User")
	}

	if !s.verifier.Verify(password, account.PasswordHash) {
		return nil, apperr.New(apperr.CodeInvalidCredential, "Invalid credentials")
	}

	return account, nil
}

func (s *identityService) SetTwoFactor(ctx context.Context, userID string, enabled bool) (*model.Profile, error) {
	accounts := s.store.Accounts()

	if err := accounts.SetTwoFactor(ctx, userID, enabled); err != nil {
		return nil, lookupError(err, "User")
	}

	account, err := accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "User")
	}

	s.logger.InfoContext(ctx, "two-factor setting changed", "user_id", userID, "enabled", enabled)
	profile := account.Profile()
	return &profile, nil
}

func (s *identityService) AddContact(ctx context.Context, ownerID string, input AddContactInput) ([]model.ContactView, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	accounts := s.store.Accounts()

	owner, err := accounts.FindByID(ctx, ownerID)
	if err != nil {
		return nil, lookupError(err, "User")
	}

	if input.Phone == owner.Phone {
		return nil, apperr.New(apperr.CodeSelfContact, "You cannot add yourself as a contact")
	}

	existing, err := accounts.ListContacts(ctx, owner.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load contacts", err)
	}
	for _, c := range existing {
		if c.Phone == input.Phone {
			return nil, apperr.New(apperr.CodeDuplicateContact, "Contact already exists")
		}
	}

	target, err := accounts.FindByPhone(ctx, input.Phone)
	if err != nil {
		return nil, lookupError(err, "Contact")
	}

	contact := &model.Contact{
		OwnerID:     owner.ID,
		ContactID:   target.ID,
		DisplayName: input.Name,
	}
	if err := accounts.AddContact(ctx, contact); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.New(apperr.CodeDuplicateContact, "Contact already exists")
		}
		return nil, apperr.Internal("failed to add contact", err)
	}

	return s.listContacts(ctx, owner.ID)
}

func (s *identityService) ListContacts(ctx context.Context, ownerID string) ([]model.ContactView, error) {
	if _, err := s.store.Accounts().FindByID(ctx, ownerID); err != nil {
		return nil, lookupError(err, "User")
	}
	return s.listContacts(ctx, ownerID)
}

func (s *identityService) listContacts(ctx context.Context, ownerID string) ([]model.ContactView, error) {
	records, err := s.store.Accounts().ListContacts(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal("failed to load contacts", err)
	}

	contacts := make([]model.ContactView, 0, len(records))
	for _, r := range records {
		contacts = append(contacts, model.ContactView{
			ID:       r.ContactID,
			Name:     r.DisplayName,
			Username: r.Username,
			Phone:    r.Phone,
		})
	}
	return contacts, nil
}

func (s *identityService) ListChats(ctx context.Context, userID string) ([]model.ChatSummary, error) {
	accounts := s.store.Accounts()

	if _, err := accounts.FindByID(ctx, userID); err != nil {
		return nil, lookupError(err, "User")
	}

	ids, err := accounts.ListConversationIDs(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load chats", err)
	}

	convs, err := s.store.Conversations().FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("failed to load chats", err)
	}

	participants, err := resolveParticipants(ctx, accounts, convs...)
	if err != nil {
		return nil, err
	}

	chats := make([]model.ChatSummary, 0, len(convs))
	for _, c := range convs {
		chats = append(chats, model.ChatSummary{
			ID:           c.ID,
			Name:         c.Name,
			CreatedAt:    c.CreatedAt,
			Participants: participants[c.ID],
		})
	}
	return chats, nil
}
