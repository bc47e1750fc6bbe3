package quota_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/cache"
	"github.com/kindling-app/kindling/internal/config"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/service/quota"
)

type fixture struct {
	appCtx *app.AppContext
	svc    *quota.Service
	now    time.Time
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

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Quota.DailyLikeLimit = 3
	cfg.Quota.DailyPassLimit = -1
	cfg.Quota.UnlimitedLikes = false
	cfg.Quota.Timezone = "UTC"

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(dbase, redisCache, logger, cfg)

	f := &fixture{
		appCtx: appCtx,
		svc:    quota.NewService(appCtx),
		now:    time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC),
	}
	f.svc.SetClock(func() time.Time { return f.now })
	return f
}

// swipeAt inserts a swipe with an explicit timestamp so tests control which
// quota day it lands in.
func (f *fixture) swipeAt(t *testing.T, user uuid.UUID, direction db.Direction, ts time.Time) {
	t.Helper()
	like := db.Like{
		ID:         uuid.New(),
		FromUserID: user,
		ToUserID:   uuid.New(),
		Direction:  direction,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	require.NoError(t, f.appCtx.DB.Create(&like).Error)
}

func TestCanLikeEnforcesDailyLimit(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	user := uuid.New()

	for i := 0; i < 3; i++ {
		ok, err := f.svc.CanLike(ctx, user)
		require.NoError(t, err)
		assert.True(t, ok)
		f.swipeAt(t, user, db.DirectionLike, f.now)
	}

	ok, err := f.svc.CanLike(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)

	// passes do not count against the like limit
	ok, err = f.svc.CanPass(ctx, user)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQuotaResetsAtMidnight(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	user := uuid.New()

	for i := 0; i < 3; i++ {
		f.swipeAt(t, user, db.DirectionLike, f.now)
	}

	ok, err := f.svc.CanLike(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)

	// next day, the counter starts over
	f.now = f.now.AddDate(0, 0, 1)
	ok, err = f.svc.CanLike(ctx, user)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnlimitedLikes(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	f.appCtx.Config.Quota.UnlimitedLikes = true
	user := uuid.New()

	for i := 0; i < 10; i++ {
		f.swipeAt(t, user, db.DirectionLike, f.now)
	}

	ok, err := f.svc.CanLike(ctx, user)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetStatus(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	user := uuid.New()

	f.swipeAt(t, user, db.DirectionLike, f.now)
	f.swipeAt(t, user, db.DirectionLike, f.now)
	f.swipeAt(t, user, db.DirectionPass, f.now)

	// yesterday's swipe is outside today's window
	f.swipeAt(t, user, db.DirectionLike, f.now.Add(-24*time.Hour))

	status, err := f.svc.GetStatus(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, status.LikesUsed)
	assert.Equal(t, 1, status.LikesRemaining)
	assert.Equal(t, 1, status.PassesUsed)
	assert.Equal(t, -1, status.PassesRemaining)
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), status.ResetsAt)
}

func TestGetStatusServesCachedCopy(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	user := uuid.New()

	f.swipeAt(t, user, db.DirectionLike, f.now)

	first, err := f.svc.GetStatus(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, first.LikesUsed)

	// a new swipe is not visible until the cached snapshot expires
	f.swipeAt(t, user, db.DirectionLike, f.now)

	second, err := f.svc.GetStatus(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, second.LikesUsed)
}

func TestQuotaTimezoneBoundary(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	f.appCtx.Config.Quota.Timezone = "America/New_York"
	user := uuid.New()

	// 02:00 UTC on June 15 is still June 14 in New York
	f.now = time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)

	// a swipe from 23:30 New York time the same local day still counts
	f.swipeAt(t, user, db.DirectionLike, time.Date(2025, 6, 15, 1, 30, 0, 0, time.UTC))
	f.swipeAt(t, user, db.DirectionLike, time.Date(2025, 6, 15, 1, 45, 0, 0, time.UTC))
	f.swipeAt(t, user, db.DirectionLike, time.Date(2025, 6, 15, 1, 50, 0, 0, time.UTC))

	ok, err := f.svc.CanLike(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)

	// midnight New York resets the day even though UTC already rolled over
	f.now = time.Date(2025, 6, 15, 4, 30, 0, 0, time.UTC)
	ok, err = f.svc.CanLike(ctx, user)
	require.NoError(t, err)
	assert.True(t, ok)
}
