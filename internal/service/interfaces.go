package service

import (
	"context"

	"sendit/messenger/internal/model"
)

// AuthResult is returned whenever a token is issued.
type AuthResult struct {
	Token   string        `json:"token"`
	Account model.Profile `json:"user"`
}

type IdentityService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	VerifyCredential(ctx context.Context, email, password string) (*model.Account, error)
	SetTwoFactor(ctx context.Context, userID string, enabled bool) (*model.Profile, error)
	AddContact(ctx context.Context, ownerID string, input AddContactInput) ([]model.ContactView, error)
	ListContacts(ctx context.Context, ownerID string) ([]model.ContactView, error)
	ListChats(ctx context.Context, userID string) ([]model.ChatSummary, error)
}

type LoginService interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	VerifyOTP(ctx context.Context, input VerifyOTPInput) (*AuthResult, error)
}

type ConversationService interface {
	CreateConversation(ctx context.Context, creatorID string, input CreateConversationInput) (*CreatedConversation, error)
	CreateGroup(ctx context.Context, creatorID string, input CreateGroupInput) (*CreatedConversation, error)
	GetConversation(ctx context.Context, conversationID string) (*model.ConversationView, error)
	AppendMessage(ctx context.Context, conversationID, senderID string, input AppendMessageInput) (*model.ConversationView, error)
	ApplyReaction(ctx context.Context, conversationID string, input ReactionInput) error
}
