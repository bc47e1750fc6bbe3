package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestUpsertOverwritesDirection(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	from, to := uuid.New(), uuid.New()

	// insert like
	first, err := repo.Upsert(ctx, &db.Like{FromUserID: from, ToUserID: to, Direction: db.DirectionLike})
	require.NoError(t, err)

	// overwrite with pass
	second, err := repo.Upsert(ctx, &db.Like{FromUserID: from, ToUserID: to, Direction: db.DirectionPass})
	require.NoError(t, err)

	// single row, original primary key survives
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, db.DirectionPass, second.Direction)

	var count int64
	dbase.Model(&db.Like{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestReverseLikeExists(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	a, b := uuid.New(), uuid.New()

	mutual, err := repo.ReverseLikeExists(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, mutual)

	_, err = repo.Upsert(ctx, &db.Like{FromUserID: b, ToUserID: a, Direction: db.DirectionLike})
	require.NoError(t, err)

	mutual, err = repo.ReverseLikeExists(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, mutual)

	// a PASS from b is not mutual interest
	_, err = repo.Upsert(ctx, &db.Like{FromUserID: b, ToUserID: a, Direction: db.DirectionPass})
	require.NoError(t, err)

	mutual, err = repo.ReverseLikeExists(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, mutual)
}

func TestCountTodayByDirection(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	user := uuid.New()
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)

	for i := 0; i < 3; i++ {
		_, err := repo.Upsert(ctx, &db.Like{FromUserID: user, ToUserID: uuid.New(), Direction: db.DirectionLike})
		require.NoError(t, err)
	}
	_, err := repo.Upsert(ctx, &db.Like{FromUserID: user, ToUserID: uuid.New(), Direction: db.DirectionPass})
	require.NoError(t, err)

	// yesterday's like must not count
	old := db.Like{
		ID:         uuid.New(),
		FromUserID: user,
		ToUserID:   uuid.New(),
		Direction:  db.DirectionLike,
		CreatedAt:  dayStart.Add(-12 * time.Hour),
		UpdatedAt:  dayStart.Add(-12 * time.Hour),
	}
	require.NoError(t, dbase.Create(&old).Error)

	likes, err := repo.CountTodayByDirection(ctx, user, db.DirectionLike, dayStart)
	require.NoError(t, err)
	assert.Equal(t, int64(3), likes)

	passes, err := repo.CountTodayByDirection(ctx, user, db.DirectionPass, dayStart)
	require.NoError(t, err)
	assert.Equal(t, int64(1), passes)
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	like, err := repo.Upsert(ctx, &db.Like{FromUserID: uuid.New(), ToUserID: uuid.New(), Direction: db.DirectionLike})
	require.NoError(t, err)

	removed, err := repo.DeleteByID(ctx, like.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteByID(ctx, like.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestGetPendingLikersAndPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	recipient := uuid.New()
	likers := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	// three incoming likes with distinct timestamps
	base := time.Now().UTC().Truncate(time.Millisecond).Add(-time.Hour)
	for i, liker := range likers {
		ts := base.Add(time.Duration(i) * time.Minute)
		like := db.Like{
			ID:         uuid.New(),
			FromUserID: liker,
			ToUserID:   recipient,
			Direction:  db.DirectionLike,
			CreatedAt:  ts,
			UpdatedAt:  ts,
		}
		require.NoError(t, dbase.Create(&like).Error)
	}

	// recipient already responded to likers[0], so it is excluded
	_, err := repo.Upsert(ctx, &db.Like{FromUserID: recipient, ToUserID: likers[0], Direction: db.DirectionPass})
	require.NoError(t, err)

	page1, token, err := repo.GetPendingLikers(ctx, recipient, nil, 1)
	require.NoError(t, err)
	require.Len(t, page1, 1)
	require.NotNil(t, token)
	assert.Equal(t, likers[2], page1[0].LikerID) // newest first

	page2, token, err := repo.GetPendingLikers(ctx, recipient, token, 1)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Nil(t, token)
	assert.Equal(t, likers[1], page2[0].LikerID)
}
