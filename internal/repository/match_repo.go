package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kindling-app/kindling/internal/db"
)

// MatchRepository provides data access for matches.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

func (r *MatchRepository) WithTx(tx *gorm.DB) *MatchRepository {
	return &MatchRepository{db: tx}
}

// CreateIfAbsent inserts the match unless a row with its deterministic id
// already exists. Returns whether this call created the row: when two
// opposite-direction likes race, exactly one transaction observes created ==
// true and the other a no-op.
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, match *db.Match) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(match)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Get returns the match by id, or gorm.ErrRecordNotFound.
func (r *MatchRepository) Get(ctx context.Context, matchID string) (*db.Match, error) {
	var match db.Match
	if err := r.db.WithContext(ctx).First(&match, "id = ?", matchID).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// Exists reports whether any row (any state) exists for the match id.
func (r *MatchRepository) Exists(ctx context.Context, matchID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ?", matchID).
		Count(&count).Error
	return count > 0, err
}

// EndActive applies the terminal transition carried on the match struct,
// but only while the stored row is still ACTIVE. Returns whether the row
// changed: false means another ending action committed first and the
// terminal state must not be overwritten.
func (r *MatchRepository) EndActive(ctx context.Context, match *db.Match) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND state = ?", match.ID, db.MatchActive).
		Updates(map[string]any{
			"state":      match.State,
			"ended_at":   match.EndedAt,
			"ended_by":   match.EndedBy,
			"end_reason": match.EndReason,
		})
	return res.RowsAffected > 0, res.Error
}

// ActiveFor returns all ACTIVE matches involving the user.
func (r *MatchRepository) ActiveFor(ctx context.Context, userID uuid.UUID) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("(user_a_id = ? OR user_b_id = ?) AND state = ?", userID, userID, db.MatchActive).
		Find(&matches).Error
	return matches, err
}

// AllFor returns every match involving the user, ended ones included.
func (r *MatchRepository) AllFor(ctx context.Context, userID uuid.UUID) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Find(&matches).Error
	return matches, err
}

// Delete removes a match row entirely (undo path).
func (r *MatchRepository) Delete(ctx context.Context, matchID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", matchID).Delete(&db.Match{})
	return res.RowsAffected > 0, res.Error
}
