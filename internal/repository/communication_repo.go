package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kindling-app/kindling/internal/db"
)

// NotificationRepository persists one-way notifications for the delivery
// subsystem to pick up.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

func (r *NotificationRepository) Save(ctx context.Context, n *db.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(n).Error
}

// ForUser returns the user's notifications, newest first.
func (r *NotificationRepository) ForUser(ctx context.Context, userID uuid.UUID, limit int) ([]db.Notification, error) {
	var notifications []db.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// ConversationRepository touches conversation rows owned by the messaging
// subsystem: this core only looks them up by pair and archives them.
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(database *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: database}
}

func (r *ConversationRepository) WithTx(tx *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: tx}
}

// GetByPair returns the conversation for the unordered pair (its id is the
// pair's match id), or nil when none exists.
func (r *ConversationRepository) GetByPair(ctx context.Context, u1, u2 uuid.UUID) (*db.Conversation, error) {
	var convo db.Conversation
	err := r.db.WithContext(ctx).First(&convo, "id = ?", db.MatchID(u1, u2)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &convo, nil
}

// Archive marks the conversation archived with the given reason.
func (r *ConversationRepository) Archive(ctx context.Context, conversationID string, reason db.EndReason, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]any{
			"archived":       true,
			"archive_reason": reason,
			"archived_at":    now,
		}).Error
}

// BlockRepository persists one-directional safety blocks.
type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(database *gorm.DB) *BlockRepository {
	return &BlockRepository{db: database}
}

func (r *BlockRepository) WithTx(tx *gorm.DB) *BlockRepository {
	return &BlockRepository{db: tx}
}

func (r *BlockRepository) Save(ctx context.Context, block *db.Block) error {
	return r.db.WithContext(ctx).FirstOrCreate(block, db.Block{
		BlockerID: block.BlockerID,
		BlockedID: block.BlockedID,
	}).Error
}

// BlockedUserIDs returns everyone blocked by or blocking the user. Blocking
// in either direction removes both sides from each other's pool.
func (r *BlockRepository) BlockedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var blocked []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("blocker_id = ?", userID).
		Pluck("blocked_id", &blocked).Error; err != nil {
		return nil, err
	}
	var blockers []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("blocked_id = ?", userID).
		Pluck("blocker_id", &blockers).Error; err != nil {
		return nil, err
	}
	return append(blocked, blockers...), nil
}
