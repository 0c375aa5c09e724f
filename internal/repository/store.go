package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the relational repositories so they can share a transaction.
type Store interface {
	Accounts() AccountRepository
	Conversations() ConversationRepository
	// Transaction runs fn against a Store bound to one database transaction.
	// The transaction commits if fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db            *gorm.DB
	accounts      AccountRepository
	conversations ConversationRepository
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{
		db:            db,
		accounts:      NewAccountRepository(db),
		conversations: NewConversationRepository(db),
	}
}

func (s *gormStore) Accounts() AccountRepository {
	return s.accounts
}

func (s *gormStore) Conversations() ConversationRepository {
	return s.conversations
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
