package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sendit/messenger/internal/model"
)

type ConversationRepository interface {
	CreateThread(ctx context.Context, thread *model.MessageThread) error
	CreateConversation(ctx context.Context, conv *model.Conversation) error
	AddMessage(ctx context.Context, msg *model.Message) error

	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Conversation, error)
	Exists(ctx context.Context, id string) (bool, error)

	FindThread(ctx context.Context, threadID string) (*model.MessageThread, error)
	// LockThread reads the thread with a row lock held until the surrounding
	// transaction ends.
	LockThread(ctx context.Context, threadID string) (*model.MessageThread, error)
	BumpThread(ctx context.Context, thread *model.MessageThread, addedMessages int) error

	ListMessages(ctx context.Context, threadID string) ([]model.Message, error)
	FindMessageInThread(ctx context.Context, threadID, messageID string) (*model.Message, bool, error)
	UpsertReaction(ctx context.Context, reaction *model.Reaction) error
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) CreateThread(ctx context.Context, thread *model.MessageThread) error {
	return translate(r.db.WithContext(ctx).Create(thread).Error)
}

// CreateConversation inserts the conversation together with its participant rows.
func (r *conversationRepository) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	return translate(r.db.WithContext(ctx).Create(conv).Error)
}

func (r *conversationRepository) AddMessage(ctx context.Context, msg *model.Message) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error)
}

func (r *conversationRepository) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		First(&conv, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &conv, nil
}

func (r *conversationRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Conversation, error) {
	var convs []model.Conversation
	if len(ids) == 0 {
		return convs, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		Where("id IN ?", ids).
		Order("created_at, id").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *conversationRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Conversation{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *conversationRepository) FindThread(ctx context.Context, threadID string) (*model.MessageThread, error) {
	var thread model.MessageThread
	if err := r.db.WithContext(ctx).First(&thread, "id = ?", threadID).Error; err != nil {
		return nil, translate(err)
	}
	return &thread, nil
}

func (r *conversationRepository) LockThread(ctx context.Context, threadID string) (*model.MessageThread, error) {
	var thread model.MessageThread
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.First(&thread, "id = ?", threadID).Error; err != nil {
		return nil, translate(err)
	}
	return &thread, nil
}

func (r *conversationRepository) BumpThread(ctx context.Context, thread *model.MessageThread, addedMessages int) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).
		Model(&model.MessageThread{}).
		Where("id = ?", thread.ID).
		Updates(map[string]any{
			"message_count": gorm.Expr("message_count + ?", addedMessages),
			"version":       gorm.Expr("version + 1"),
			"updated_at":    now,
		}).Error
	if err != nil {
		return err
	}

	thread.MessageCount += addedMessages
	thread.Version++
	thread.UpdatedAt = now
	return nil
}

func (r *conversationRepository) ListMessages(ctx context.Context, threadID string) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Preload("Reactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("updated_at, account_id")
		}).
		Where("thread_id = ?", threadID).
		Order("seq").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// FindMessageInThread reports found=false, with a nil error, when the thread
// has no message with that id.
func (r *conversationRepository) FindMessageInThread(ctx context.Context, threadID, messageID string) (*model.Message, bool, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Where("thread_id = ? AND id = ?", threadID, messageID).
		Limit(1).
		Find(&messages).Error
	if err != nil {
		return nil, false, err
	}
	if len(messages) == 0 {
		return nil, false, nil
	}
	return &messages[0], true, nil
}

func (r *conversationRepository) UpsertReaction(ctx context.Context, reaction *model.Reaction) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(reaction).Error
}
