// Package quota tracks daily like/pass counts against configured limits.
// "Today" runs midnight-to-midnight in the configured quota timezone.
package quota

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/repository"
)

// statusCacheTTL keeps the cached counters well inside a single day; the
// DB count is always the authority when enforcing the limit.
const statusCacheTTL = time.Minute

// Service implements the daily limit tracker.
type Service struct {
	appCtx   *app.AppContext
	likeRepo *repository.LikeRepository
	now      func() time.Time
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		likeRepo: repository.NewLikeRepository(appCtx.DB),
		now:      time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Status is the caller-facing quota snapshot. Remaining counts are -1 when
// unlimited.
type Status struct {
	LikesUsed       int       `json:"likes_used"`
	LikesRemaining  int       `json:"likes_remaining"`
	PassesUsed      int       `json:"passes_used"`
	PassesRemaining int       `json:"passes_remaining"`
	ResetsAt        time.Time `json:"resets_at"`
}

// CanLike reports whether the user may record another LIKE today. Counts
// come from the authoritative store, not the cache.
func (s *Service) CanLike(ctx context.Context, userID uuid.UUID) (bool, error) {
	if s.unlimitedLikes() {
		return true, nil
	}
	used, err := s.countToday(ctx, userID, db.DirectionLike)
	if err != nil {
		return false, err
	}
	return used < int64(s.appCtx.Config.Quota.DailyLikeLimit), nil
}

// CanPass reports whether the user may record another PASS today. Passes
// are unlimited by default.
func (s *Service) CanPass(ctx context.Context, userID uuid.UUID) (bool, error) {
	limit := s.appCtx.Config.Quota.DailyPassLimit
	if limit < 0 {
		return true, nil
	}
	used, err := s.countToday(ctx, userID, db.DirectionPass)
	if err != nil {
		return false, err
	}
	return used < int64(limit), nil
}

// GetStatus returns today's counters and the next reset instant, serving a
// short-lived cached copy when present.
func (s *Service) GetStatus(ctx context.Context, userID uuid.UUID) (Status, error) {
	day := s.dayStart().Format("2006-01-02")
	key := s.appCtx.RedisCache.KeyForQuotaStatus(userID, day)

	if cached, err := s.appCtx.RedisCache.Get(ctx, key); err == nil && cached != "" {
		var status Status
		if json.Unmarshal([]byte(cached), &status) == nil {
			return status, nil
		}
	}

	likesUsed, err := s.countToday(ctx, userID, db.DirectionLike)
	if err != nil {
		return Status{}, err
	}
	passesUsed, err := s.countToday(ctx, userID, db.DirectionPass)
	if err != nil {
		return Status{}, err
	}

	status := Status{
		LikesUsed:       int(likesUsed),
		LikesRemaining:  remaining(s.likeLimit(), likesUsed),
		PassesUsed:      int(passesUsed),
		PassesRemaining: remaining(s.appCtx.Config.Quota.DailyPassLimit, passesUsed),
		ResetsAt:        s.resetTime(),
	}

	if payload, err := json.Marshal(status); err == nil {
		_ = s.appCtx.RedisCache.Set(ctx, key, payload, statusCacheTTL)
	}
	return status, nil
}

func (s *Service) countToday(ctx context.Context, userID uuid.UUID, direction db.Direction) (int64, error) {
	count, err := s.likeRepo.CountTodayByDirection(ctx, userID, direction, s.dayStart())
	if err != nil {
		return 0, apperr.Storage("count daily swipes", err)
	}
	return count, nil
}

func (s *Service) unlimitedLikes() bool {
	return s.appCtx.Config.Quota.UnlimitedLikes || s.appCtx.Config.Quota.DailyLikeLimit < 0
}

func (s *Service) likeLimit() int {
	if s.appCtx.Config.Quota.UnlimitedLikes {
		return -1
	}
	return s.appCtx.Config.Quota.DailyLikeLimit
}

func (s *Service) location() *time.Location {
	loc, err := time.LoadLocation(s.appCtx.Config.Quota.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// dayStart is today's midnight in the configured timezone.
func (s *Service) dayStart() time.Time {
	loc := s.location()
	now := s.now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

// resetTime is the next midnight in the configured timezone.
func (s *Service) resetTime() time.Time {
	return s.dayStart().AddDate(0, 0, 1)
}

func remaining(limit int, used int64) int {
	if limit < 0 {
		return -1
	}
	r := limit - int(used)
	if r < 0 {
		return 0
	}
	return r
}
