package relationship_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/config"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/service/relationship"
)

type fixture struct {
	appCtx *app.AppContext
	svc    *relationship.Service
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbase.AutoMigrate(db.Models()...))

	cfg := config.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(dbase, nil, logger, cfg)

	return &fixture{appCtx: appCtx, svc: relationship.NewService(appCtx)}
}

func (f *fixture) activeMatch(t *testing.T) (uuid.UUID, uuid.UUID, *db.Match) {
	t.Helper()
	a, b := uuid.New(), uuid.New()
	match := db.NewMatch(a, b)
	require.NoError(t, f.appCtx.DB.Create(match).Error)
	return a, b, match
}

func (f *fixture) reloadMatch(t *testing.T, id string) *db.Match {
	t.Helper()
	var match db.Match
	require.NoError(t, f.appCtx.DB.First(&match, "id = ?", id).Error)
	return &match
}

func TestFriendZoneRequestAndAccept(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	a, b, match := f.activeMatch(t)

	request, err := f.svc.RequestFriendZone(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, db.FriendRequestPending, request.Status)

	// target got notified
	var notif db.Notification
	require.NoError(t, f.appCtx.DB.First(&notif, "user_id = ?", b).Error)
	assert.Equal(t, db.NotifFriendRequest, notif.Type)

	// a second request in either direction is rejected while one is pending
	_, err = f.svc.RequestFriendZone(ctx, b, a)
	assert.True(t, apperr.IsStateConflict(err))

	require.NoError(t, f.svc.AcceptFriendZone(ctx, request.ID, b))

	got := f.reloadMatch(t, match.ID)
	assert.Equal(t, db.MatchFriendZoned, got.State)
	require.NotNil(t, got.EndedBy)
	assert.Equal(t, a, *got.EndedBy)
	require.NotNil(t, got.EndReason)
	assert.Equal(t, db.ReasonFriendZone, *got.EndReason)

	// requester got the acceptance notification
	var accepted db.Notification
	require.NoError(t, f.appCtx.DB.First(&accepted, "user_id = ? AND type = ?", a, db.NotifFriendRequestAccepted).Error)
}

func TestFriendZoneOnlyTargetMayRespond(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	a, b, _ := f.activeMatch(t)

	request, err := f.svc.RequestFriendZone(ctx, a, b)
	require.NoError(t, err)

	// the requester cannot accept their own request
	err = f.svc.AcceptFriendZone(ctx, request.ID, a)
	assert.True(t, apperr.IsStateConflict(err))

	err = f.svc.AcceptFriendZone(ctx, uuid.New(), b)
	assert.True(t, apperr.IsNotFound(err))
}

func TestFriendZoneDeclineKeepsMatchActive(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	a, b, match := f.activeMatch(t)

	request, err := f.svc.RequestFriendZone(ctx, a, b)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeclineFriendZone(ctx, request.ID, b))

	got := f.reloadMatch(t, match.ID)
	assert.Equal(t, db.MatchActive, got.State)

	// declining is final for that request
	err = f.svc.AcceptFriendZone(ctx, request.ID, b)
	assert.True(t, apperr.IsStateConflict(err))

	// but a new request may now be made
	_, err = f.svc.RequestFriendZone(ctx, b, a)
	assert.NoError(t, err)
}

func TestFriendZoneRequiresActiveMatch(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	// never matched
	_, err := f.svc.RequestFriendZone(ctx, uuid.New(), uuid.New())
	assert.True(t, apperr.IsNotFound(err))

	// already ended
	a, b, match := f.activeMatch(t)
	require.NoError(t, f.svc.Unmatch(ctx, a, b))
	_, err = f.svc.RequestFriendZone(ctx, a, b)
	assert.True(t, apperr.IsStateConflict(err))

	got := f.reloadMatch(t, match.ID)
	assert.Equal(t, db.MatchUnmatched, got.State)
}

func TestGracefulExitArchivesConversation(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	a, b, match := f.activeMatch(t)

	convo := db.Conversation{ID: match.ID, UserAID: match.UserAID, UserBID: match.UserBID}
	require.NoError(t, f.appCtx.DB.Create(&convo).Error)

	require.NoError(t, f.svc.GracefulExit(ctx, a, b))

	got := f.reloadMatch(t, match.ID)
	assert.Equal(t, db.MatchGracefulExit, got.State)

	var archived db.Conversation
	require.NoError(t, f.appCtx.DB.First(&archived, "id = ?", match.ID).Error)
	assert.True(t, archived.Archived)
	require.NotNil(t, archived.ArchiveReason)
	assert.Equal(t, db.ReasonGracefulExit, *archived.ArchiveReason)

	// the other party is notified
	var notif db.Notification
	require.NoError(t, f.appCtx.DB.First(&notif, "user_id = ? AND type = ?", b, db.NotifGracefulExit).Error)
}

func TestGracefulExitWithoutConversation(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	a, b, match := f.activeMatch(t)

	require.NoError(t, f.svc.GracefulExit(ctx, a, b))
	assert.Equal(t, db.MatchGracefulExit, f.reloadMatch(t, match.ID).State)
}

func TestUnmatchIsTerminal(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	a, b, match := f.activeMatch(t)

	require.NoError(t, f.svc.Unmatch(ctx, a, b))
	assert.Equal(t, db.MatchUnmatched, f.reloadMatch(t, match.ID).State)

	err := f.svc.Unmatch(ctx, a, b)
	assert.True(t, apperr.IsStateConflict(err))
}

func TestBlockEndsActiveMatch(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	a, b, match := f.activeMatch(t)

	require.NoError(t, f.svc.Block(ctx, a, b))

	got := f.reloadMatch(t, match.ID)
	assert.Equal(t, db.MatchBlocked, got.State)
	require.NotNil(t, got.EndReason)
	assert.Equal(t, db.ReasonBlock, *got.EndReason)

	var count int64
	f.appCtx.DB.Model(&db.Block{}).Where("blocker_id = ? AND blocked_id = ?", a, b).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestBlockWithoutMatch(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	a, b := uuid.New(), uuid.New()
	require.NoError(t, f.svc.Block(ctx, a, b))

	// idempotent
	require.NoError(t, f.svc.Block(ctx, a, b))

	var count int64
	f.appCtx.DB.Model(&db.Block{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestBlockLeavesEndedMatchUntouched(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	a, b, match := f.activeMatch(t)

	require.NoError(t, f.svc.Unmatch(ctx, a, b))
	require.NoError(t, f.svc.Block(ctx, a, b))

	// the block never rewrites a terminal state
	assert.Equal(t, db.MatchUnmatched, f.reloadMatch(t, match.ID).State)
}

func TestNotificationsFor(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	a, b, _ := f.activeMatch(t)

	_, err := f.svc.RequestFriendZone(ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, f.svc.GracefulExit(ctx, a, b))

	notifications, err := f.svc.NotificationsFor(ctx, b, 50)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	none, err := f.svc.NotificationsFor(ctx, a, 50)
	require.NoError(t, err)
	assert.Len(t, none, 0)
}

func TestPendingRequestsFor(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	a, b, _ := f.activeMatch(t)

	_, err := f.svc.RequestFriendZone(ctx, a, b)
	require.NoError(t, err)

	requests, err := f.svc.PendingRequestsFor(ctx, b)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, a, requests[0].FromUserID)

	requests, err = f.svc.PendingRequestsFor(ctx, a)
	require.NoError(t, err)
	assert.Len(t, requests, 0)
}
