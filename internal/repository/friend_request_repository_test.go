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

func TestPendingBetweenEitherDirection(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewFriendRequestRepository(dbase)

	a, b := uuid.New(), uuid.New()

	pending, err := repo.PendingBetween(ctx, a, b)
	require.NoError(t, err)
	assert.Nil(t, pending)

	request := &db.FriendRequest{FromUserID: a, ToUserID: b, Status: db.FriendRequestPending}
	require.NoError(t, repo.Save(ctx, request))

	// visible regardless of argument order
	pending, err = repo.PendingBetween(ctx, a, b)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, request.ID, pending.ID)

	pending, err = repo.PendingBetween(ctx, b, a)
	require.NoError(t, err)
	require.NotNil(t, pending)

	// a resolved request no longer blocks new ones
	request.Status = db.FriendRequestDeclined
	now := time.Now()
	request.RespondedAt = &now
	ok, err := repo.Resolve(ctx, request)
	require.NoError(t, err)
	assert.True(t, ok)

	pending, err = repo.PendingBetween(ctx, a, b)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestDuplicatePendingRequestRejected(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewFriendRequestRepository(dbase)

	a, b := uuid.New(), uuid.New()

	first := &db.FriendRequest{FromUserID: a, ToUserID: b, Status: db.FriendRequestPending}
	require.NoError(t, repo.Save(ctx, first))

	// a second PENDING row for the same pair, from either side, trips the
	// unique pending_pair key
	dup := &db.FriendRequest{FromUserID: b, ToUserID: a, Status: db.FriendRequestPending}
	assert.Error(t, repo.Save(ctx, dup))

	// once the first is resolved the pair key is released
	first.Status = db.FriendRequestAccepted
	now := time.Now()
	first.RespondedAt = &now
	ok, err := repo.Resolve(ctx, first)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, first.PendingPair)

	again := &db.FriendRequest{FromUserID: b, ToUserID: a, Status: db.FriendRequestPending}
	assert.NoError(t, repo.Save(ctx, again))
}

func TestResolveOnlyAppliesOnce(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewFriendRequestRepository(dbase)

	request := &db.FriendRequest{FromUserID: uuid.New(), ToUserID: uuid.New(), Status: db.FriendRequestPending}
	require.NoError(t, repo.Save(ctx, request))

	now := time.Now()
	request.Status = db.FriendRequestDeclined
	request.RespondedAt = &now

	ok, err := repo.Resolve(ctx, request)
	require.NoError(t, err)
	assert.True(t, ok)

	// the row is no longer PENDING, so a rival resolution is a no-op
	request.Status = db.FriendRequestAccepted
	ok, err = repo.Resolve(ctx, request)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.Get(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, db.FriendRequestDeclined, stored.Status)
}

func TestPendingForListsOnlyIncoming(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewFriendRequestRepository(dbase)

	user := uuid.New()

	incoming := &db.FriendRequest{FromUserID: uuid.New(), ToUserID: user, Status: db.FriendRequestPending}
	outgoing := &db.FriendRequest{FromUserID: user, ToUserID: uuid.New(), Status: db.FriendRequestPending}
	require.NoError(t, repo.Save(ctx, incoming))
	require.NoError(t, repo.Save(ctx, outgoing))

	requests, err := repo.PendingFor(ctx, user)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, incoming.ID, requests[0].ID)
}
