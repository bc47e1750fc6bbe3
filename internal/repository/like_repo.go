package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/utils/pagination"
)

// LikeRepository provides data access for swipe decisions.
type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *LikeRepository) WithTx(tx *gorm.DB) *LikeRepository {
	return &LikeRepository{db: tx}
}

// Upsert inserts or overwrites the swipe for the ordered (from, to) pair.
//
// The unique index on (from_user_id, to_user_id) guarantees a single row per
// pair: re-swiping updates direction, clears the soft-delete flag, and
// bumps updated_at. Returns the stored row (the original primary key
// survives an overwrite).
func (r *LikeRepository) Upsert(ctx context.Context, like *db.Like) (*db.Like, error) {
	if like.ID == uuid.Nil {
		like.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "from_user_id"}, {Name: "to_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"direction", "deleted", "updated_at"}),
		}).
		Create(like).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, like.FromUserID, like.ToUserID)
}

// Get returns the swipe for the ordered pair, or gorm.ErrRecordNotFound.
func (r *LikeRepository) Get(ctx context.Context, from, to uuid.UUID) (*db.Like, error) {
	var like db.Like
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ?", from, to).
		First(&like).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// Exists reports whether any non-deleted swipe exists for the ordered pair.
func (r *LikeRepository) Exists(ctx context.Context, from, to uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("from_user_id = ? AND to_user_id = ? AND deleted = ?", from, to, false).
		Count(&count).Error
	return count > 0, err
}

// ReverseLikeExists reports whether `to` currently likes `from`. This is the
// mutual-interest check done inside the match-creating transaction.
//
// On MySQL it is a locking read: two opposite-direction swipes racing in
// separate transactions serialize here, so the second committer waits for
// the first's Like row to become visible and exactly one of them observes
// the mutual pair. sqlite has no FOR UPDATE; its single writer already
// serializes transactions.
func (r *LikeRepository) ReverseLikeExists(ctx context.Context, from, to uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&db.Like{})
	if r.db.Dialector.Name() == "mysql" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var count int64
	err := query.
		Where("from_user_id = ? AND to_user_id = ? AND direction = ? AND deleted = ?",
			to, from, db.DirectionLike, false).
		Count(&count).Error
	return count > 0, err
}

// SwipedUserIDs returns every user the given user has liked or passed on.
func (r *LikeRepository) SwipedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("from_user_id = ? AND deleted = ?", userID, false).
		Pluck("to_user_id", &ids).Error
	return ids, err
}

// CountTodayByDirection counts swipes of one direction since the day start.
// Quota enforcement counts from the authoritative store, not the cache.
func (r *LikeRepository) CountTodayByDirection(
	ctx context.Context,
	userID uuid.UUID,
	direction db.Direction,
	dayStart time.Time,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("from_user_id = ? AND direction = ? AND deleted = ? AND updated_at >= ?",
			userID, direction, false, dayStart).
		Count(&count).Error
	return count, err
}

// DeleteByID removes the like row entirely (undo path).
func (r *LikeRepository) DeleteByID(ctx context.Context, likeID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", likeID).Delete(&db.Like{})
	return res.RowsAffected > 0, res.Error
}

// PendingLiker pairs a liker id with when the like happened.
type PendingLiker struct {
	LikerID uuid.UUID
	LikedAt time.Time
}

// GetPendingLikers returns users who liked the recipient and have not been
// responded to, newest first, cursor-paginated.
//
// The anti-join excludes likers the recipient already swiped on; blocked and
// matched users are filtered by the service on top of this.
func (r *LikeRepository) GetPendingLikers(
	ctx context.Context,
	recipientID uuid.UUID,
	paginationToken *string,
	limit int,
) ([]PendingLiker, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("likes l").
		Select("l.from_user_id, l.updated_at").
		Where("l.to_user_id = ? AND l.direction = ? AND l.deleted = ?", recipientID, db.DirectionLike, false).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM likes l2
				WHERE l2.from_user_id = ?
				  AND l2.to_user_id = l.from_user_id
				  AND l2.deleted = ?
			)`, recipientID, false).
		Order("l.updated_at DESC, l.from_user_id DESC").
		Limit(limit + 1)

	if cursor.LikerID != "" && cursor.UpdatedUnix > 0 {
		ts := time.UnixMilli(cursor.UpdatedUnix)
		query = query.Where(
			"(l.updated_at < ? OR (l.updated_at = ? AND l.from_user_id < ?))",
			ts, ts, cursor.LikerID,
		)
	}

	type row struct {
		FromUserID uuid.UUID
		UpdatedAt  time.Time
	}
	var rows []row
	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(rows) > limit {
		last := rows[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			LikerID:     last.FromUserID.String(),
			UpdatedUnix: last.UpdatedAt.UnixMilli(),
		})
		nextToken = &token
		rows = rows[:limit]
	}

	likers := make([]PendingLiker, 0, len(rows))
	for _, rw := range rows {
		likers = append(likers, PendingLiker{LikerID: rw.FromUserID, LikedAt: rw.UpdatedAt})
	}
	return likers, nextToken, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
