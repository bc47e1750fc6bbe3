package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kindling-app/kindling/internal/db"
)

// FriendRequestRepository provides data access for friend-zone requests.
type FriendRequestRepository struct {
	db *gorm.DB
}

func NewFriendRequestRepository(database *gorm.DB) *FriendRequestRepository {
	return &FriendRequestRepository{db: database}
}

func (r *FriendRequestRepository) WithTx(tx *gorm.DB) *FriendRequestRepository {
	return &FriendRequestRepository{db: tx}
}

// Save inserts the request. A PENDING request carries the pair key so the
// unique index rejects a second PENDING row for the pair, whichever side it
// comes from.
func (r *FriendRequestRepository) Save(ctx context.Context, request *db.FriendRequest) error {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	if request.Status == db.FriendRequestPending && request.PendingPair == nil {
		pair := db.MatchID(request.FromUserID, request.ToUserID)
		request.PendingPair = &pair
	}
	return r.db.WithContext(ctx).Create(request).Error
}

// Resolve sets the final status and responded-at carried on the struct, but
// only while the stored row is still PENDING. Clearing the pair key frees
// the pair for future requests. Returns whether the row changed.
func (r *FriendRequestRepository) Resolve(ctx context.Context, request *db.FriendRequest) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.FriendRequest{}).
		Where("id = ? AND status = ?", request.ID, db.FriendRequestPending).
		Updates(map[string]any{
			"status":       request.Status,
			"responded_at": request.RespondedAt,
			"pending_pair": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		request.PendingPair = nil
	}
	return res.RowsAffected > 0, nil
}

// Get returns the request by id, or gorm.ErrRecordNotFound.
func (r *FriendRequestRepository) Get(ctx context.Context, requestID uuid.UUID) (*db.FriendRequest, error) {
	var request db.FriendRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", requestID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// PendingBetween returns the PENDING request between the unordered pair, or
// nil when none exists. Keyed on the pair column, so direction does not
// matter. On MySQL the read locks the row inside a transaction.
func (r *FriendRequestRepository) PendingBetween(ctx context.Context, u1, u2 uuid.UUID) (*db.FriendRequest, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "mysql" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var request db.FriendRequest
	err := query.First(&request, "pending_pair = ?", db.MatchID(u1, u2)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// PendingFor returns every PENDING request addressed to the user.
func (r *FriendRequestRepository) PendingFor(ctx context.Context, userID uuid.UUID) ([]db.FriendRequest, error) {
	var requests []db.FriendRequest
	err := r.db.WithContext(ctx).
		Where("to_user_id = ? AND status = ?", userID, db.FriendRequestPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}
