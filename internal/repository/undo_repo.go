package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kindling-app/kindling/internal/db"
)

// UndoRepository persists the single undo slot per user.
type UndoRepository struct {
	db *gorm.DB
}

func NewUndoRepository(database *gorm.DB) *UndoRepository {
	return &UndoRepository{db: database}
}

func (r *UndoRepository) WithTx(tx *gorm.DB) *UndoRepository {
	return &UndoRepository{db: tx}
}

// Save upserts the slot keyed on user id, replacing any prior one. There is
// no undo stack: only the most recent swipe is ever reversible.
func (r *UndoRepository) Save(ctx context.Context, state *db.UndoState) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"like_id", "from_user_id", "to_user_id", "direction", "match_id", "expires_at", "created_at",
			}),
		}).
		Create(state).Error
}

// FindByUser returns the slot, or gorm.ErrRecordNotFound.
func (r *UndoRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*db.UndoState, error) {
	var state db.UndoState
	if err := r.db.WithContext(ctx).First(&state, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

// Delete removes the slot for the user.
func (r *UndoRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&db.UndoState{}).Error
}

// DeleteExpired sweeps every slot whose window has passed. Returns how many
// rows were removed.
func (r *UndoRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&db.UndoState{})
	return res.RowsAffected, res.Error
}
