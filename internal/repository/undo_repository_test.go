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
)

func TestUndoSlotReplacement(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUndoRepository(dbase)

	user := uuid.New()
	now := time.Now().UTC().Truncate(time.Millisecond)

	first := &db.UndoState{
		UserID:     user,
		LikeID:     uuid.New(),
		FromUserID: user,
		ToUserID:   uuid.New(),
		Direction:  db.DirectionLike,
		ExpiresAt:  now.Add(10 * time.Second),
	}
	require.NoError(t, repo.Save(ctx, first))

	// second swipe replaces the slot, there is no stack
	second := &db.UndoState{
		UserID:     user,
		LikeID:     uuid.New(),
		FromUserID: user,
		ToUserID:   uuid.New(),
		Direction:  db.DirectionPass,
		ExpiresAt:  now.Add(20 * time.Second),
	}
	require.NoError(t, repo.Save(ctx, second))

	state, err := repo.FindByUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, second.LikeID, state.LikeID)
	assert.Equal(t, db.DirectionPass, state.Direction)

	var count int64
	dbase.Model(&db.UndoState{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeleteExpiredSlots(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewUndoRepository(dbase)

	now := time.Now().UTC().Truncate(time.Millisecond)

	stale := &db.UndoState{
		UserID:     uuid.New(),
		LikeID:     uuid.New(),
		FromUserID: uuid.New(),
		ToUserID:   uuid.New(),
		Direction:  db.DirectionLike,
		ExpiresAt:  now.Add(-time.Second),
	}
	fresh := &db.UndoState{
		UserID:     uuid.New(),
		LikeID:     uuid.New(),
		FromUserID: uuid.New(),
		ToUserID:   uuid.New(),
		Direction:  db.DirectionLike,
		ExpiresAt:  now.Add(time.Minute),
	}
	require.NoError(t, repo.Save(ctx, stale))
	require.NoError(t, repo.Save(ctx, fresh))

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.FindByUser(ctx, fresh.UserID)
	assert.NoError(t, err)
}
