package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sendit/messenger/internal/model"
)

// ContactRecord is a contact row joined with the account it points to.
type ContactRecord struct {
	ContactID   string
	DisplayName string
	Username    string
	Phone       string
}

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByPhone(ctx context.Context, phone string) (*model.Account, error)
	FindByPhones(ctx context.Context, phones []string) ([]model.Account, error)
	// TakenIdentity returns the first of "username", "email" or "phone"
	// already used by another account, or "" if all are free.
	TakenIdentity(ctx context.Context, username, phone, email string) (string, error)

	SetTwoFactor(ctx context.Context, id string, enabled bool) error

	AddContact(ctx context.Context, contact *model.Contact) error
	ListContacts(ctx context.Context, ownerID string) ([]ContactRecord, error)

	LinkConversation(ctx context.Context, accountID, conversationID string) error
	ListConversationIDs(ctx context.Context, accountID string) ([]string, error)
	CountConversationLinks(ctx context.Context, conversationID string) (int64, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	return translate(r.db.WithContext(ctx).Create(account).Error)
}

func (r *accountRepository) FindByID(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *accountRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Account, error) {
	var accounts []model.Account
	if len(ids) == 0 {
		return accounts, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *accountRepository) FindByPhone(ctx context.Context, phone string) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *accountRepository) FindByPhones(ctx context.Context, phones []string) ([]model.Account, error) {
	var accounts []model.Account
	if len(phones) == 0 {
		return accounts, nil
	}
	if err := r.db.WithContext(ctx).Where("phone IN ?", phones).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) TakenIdentity(ctx context.Context, username, phone, email string) (string, error) {
	checks := []struct {
		field string
		value string
	}{
		{"email", email},
		{"username", username},
		{"phone", phone},
	}

	for _, check := range checks {
		var count int64
		err := r.db.WithContext(ctx).Model(&model.Account{}).
			Where(fmt.Sprintf("%s = ?", check.field), check.value).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count > 0 {
			return check.field, nil
		}
	}

	return "", nil
}

func (r *accountRepository) SetTwoFactor(ctx context.Context, id string, enabled bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Update("two_factor_enabled", enabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *accountRepository) AddContact(ctx context.Context, contact *model.Contact) error {
	return translate(r.db.WithContext(ctx).Create(contact).Error)
}

func (r *accountRepository) ListContacts(ctx context.Context, ownerID string) ([]ContactRecord, error) {
	var records []ContactRecord
	err := r.db.WithContext(ctx).
		Table("contacts").
		Select("contacts.contact_id, contacts.display_name, accounts.username, accounts.phone").
		Joins("JOIN accounts ON accounts.id = contacts.contact_id").
		Where("contacts.owner_id = ?", ownerID).
		Order("contacts.created_at, contacts.contact_id").
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// LinkConversation adds conversationID to the account's chats. Linking an
// already linked conversation is a no-op.
func (r *accountRepository) LinkConversation(ctx context.Context, accountID, conversationID string) error {
	link := model.AccountChat{AccountID: accountID, ConversationID: conversationID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
}

func (r *accountRepository) ListConversationIDs(ctx context.Context, accountID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.AccountChat{}).
		Where("account_id = ?", accountID).
		Order("created_at, conversation_id").
		Pluck("conversation_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *accountRepository) CountConversationLinks(ctx context.Context, conversationID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AccountChat{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	return count, err
}
