package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/geo"
)

// UserRepository provides read access to the user pool. Users are owned by
// the profile subsystem; this core never writes them outside of seeding.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Get returns the user by id, or gorm.ErrRecordNotFound.
func (r *UserRepository) Get(ctx context.Context, userID uuid.UUID) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user row exists.
func (r *UserRepository) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

// FindByIDs batch-loads users keyed by id.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]db.User, error) {
	result := make(map[uuid.UUID]db.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// FindActive returns the full ACTIVE pool.
func (r *UserRepository) FindActive(ctx context.Context) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("state = ?", db.UserActive).
		Find(&users).Error
	return users, err
}

// FindActiveNear returns the ACTIVE pool prefiltered by a bounding box
// around the seeker. The box is a conservative over-approximation: users
// without a location always pass (distance filtering is skipped for them),
// and the exact haversine check happens in memory afterwards. Never treat
// this result as final eligibility.
func (r *UserRepository) FindActiveNear(ctx context.Context, seeker *db.User) ([]db.User, error) {
	if !seeker.LocationSet {
		return r.FindActive(ctx)
	}

	minLat, maxLat, minLon, maxLon := geo.BoundingBox(seeker.Lat, seeker.Lon, seeker.MaxDistanceKm)

	var users []db.User
	err := r.db.WithContext(ctx).
		Where("state = ?", db.UserActive).
		Where("location_set = ? OR (lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?)",
			false, minLat, maxLat, minLon, maxLon).
		Find(&users).Error
	return users, err
}
