package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sendit/messenger/internal/model"
	"sendit/messenger/internal/repository"
	"sendit/messenger/internal/testutil"
)

func newAccount(username, phone string) *model.Account {
	return &model.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Phone:        phone,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
}

func TestAccountRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAccountRepository(testutil.NewDB(t))

	alice := newAccount("alice", "9876543210")
	require.NoError(t, repo.Create(ctx, alice))

	byID, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	byPhone, err := repo.FindByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byPhone.ID)

	_, err = repo.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAccountRepository_DuplicateIdentity(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAccountRepository(testutil.NewDB(t))

	require.NoError(t, repo.Create(ctx, newAccount("alice", "9876543210")))

	dup := newAccount("alice2", "9876543210")
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	field, err := repo.TakenIdentity(ctx, "bob", "9876543210", "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "phone", field)

	field, err = repo.TakenIdentity(ctx, "alice", "1111111111", "x@example.com")
	require.NoError(t, err)
	assert.Equal(t, "username", field)

	field, err = repo.TakenIdentity(ctx, "bob", "1111111111", "bob@example.com")
	require.NoError(t, err)
	assert.Empty(t, field)
}

func TestAccountRepository_Contacts(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAccountRepository(testutil.NewDB(t))

	alice := newAccount("alice", "9876543210")
	bob := newAccount("bob", "9876543211")
	carol := newAccount("carol", "9876543212")
	for _, a := range []*model.Account{alice, bob, carol} {
		require.NoError(t, repo.Create(ctx, a))
	}

	require.NoError(t, repo.AddContact(ctx, &model.Contact{OwnerID: alice.ID, ContactID: carol.ID, DisplayName: "Carol"}))
	require.NoError(t, repo.AddContact(ctx, &model.Contact{OwnerID: alice.ID, ContactID: bob.ID, DisplayName: "Bobby"}))

	err := repo.AddContact(ctx, &model.Contact{OwnerID: alice.ID, ContactID: bob.ID, DisplayName: "Bob again"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	contacts, err := repo.ListContacts(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Carol", contacts[0].DisplayName)
	assert.Equal(t, "carol", contacts[0].Username)
	assert.Equal(t, "Bobby", contacts[1].DisplayName)
	assert.Equal(t, "9876543211", contacts[1].Phone)

	empty, err := repo.ListContacts(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAccountRepository_LinkConversationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAccountRepository(testutil.NewDB(t))

	alice := newAccount("alice", "9876543210")
	require.NoError(t, repo.Create(ctx, alice))

	convID := uuid.NewString()
	require.NoError(t, repo.LinkConversation(ctx, alice.ID, convID))
	require.NoError(t, repo.LinkConversation(ctx, alice.ID, convID))

	ids, err := repo.ListConversationIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{convID}, ids)

	count, err := repo.CountConversationLinks(ctx, convID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAccountRepository_FindByPhones(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAccountRepository(testutil.NewDB(t))

	require.NoError(t, repo.Create(ctx, newAccount("alice", "9876543210")))
	require.NoError(t, repo.Create(ctx, newAccount("bob", "9876543211")))

	found, err := repo.FindByPhones(ctx, []string{"9876543210", "9876543211", "0000000000"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	none, err := repo.FindByPhones(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
