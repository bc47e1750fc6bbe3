// Package matching is the like→match engine: it persists swipe decisions
// and atomically creates a Match exactly when mutual interest exists.
package matching

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/repository"
)

// QuotaGate is the daily-limit check consulted before a swipe is recorded.
type QuotaGate interface {
	CanLike(ctx context.Context, userID uuid.UUID) (bool, error)
	CanPass(ctx context.Context, userID uuid.UUID) (bool, error)
}

// UndoRecorder stores the undo slot after each swipe.
type UndoRecorder interface {
	RecordSwipe(ctx context.Context, userID uuid.UUID, like *db.Like, match *db.Match) error
}

// Service implements the like/match engine.
type Service struct {
	appCtx    *app.AppContext
	likeRepo  *repository.LikeRepository
	matchRepo *repository.MatchRepository
	userRepo  *repository.UserRepository
	blockRepo *repository.BlockRepository
	quota     QuotaGate
	undo      UndoRecorder
}

func NewService(appCtx *app.AppContext, quota QuotaGate, undo UndoRecorder) *Service {
	return &Service{
		appCtx:    appCtx,
		likeRepo:  repository.NewLikeRepository(appCtx.DB),
		matchRepo: repository.NewMatchRepository(appCtx.DB),
		userRepo:  repository.NewUserRepository(appCtx.DB),
		blockRepo: repository.NewBlockRepository(appCtx.DB),
		quota:     quota,
		undo:      undo,
	}
}

// RecordLike persists the swipe and returns the Match when this call
// completed a mutual like, nil otherwise.
//
// The whole sequence runs in one transaction: upsert the like (overwriting
// any prior decision for the ordered pair and clearing its soft-delete
// flag), stop on PASS, check the reverse like, then create the match under
// its deterministic id. When two opposite-direction likes race, the locking
// reverse-like read serializes the transactions so exactly one observes the
// mutual pair, and the match's unique primary key backstops the
// both-observe case: at most one transaction creates the row, the other
// returns nil without error.
//
// On return the passed like carries its stored id and timestamps.
func (s *Service) RecordLike(ctx context.Context, like *db.Like) (*db.Match, error) {
	if like == nil {
		return nil, apperr.Validation("like is required")
	}
	if like.Direction != db.DirectionLike && like.Direction != db.DirectionPass {
		return nil, apperr.Validation("direction must be LIKE or PASS")
	}
	if like.FromUserID == like.ToUserID {
		return nil, apperr.Validation("cannot swipe on yourself")
	}
	if err := s.requireUsers(ctx, like.FromUserID, like.ToUserID); err != nil {
		return nil, err
	}

	var created *db.Match
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := s.likeRepo.WithTx(tx).Upsert(ctx, like)
		if err != nil {
			return err
		}
		*like = *stored

		if like.Direction != db.DirectionLike {
			return nil
		}

		mutual, err := s.likeRepo.WithTx(tx).ReverseLikeExists(ctx, like.FromUserID, like.ToUserID)
		if err != nil {
			return err
		}
		if !mutual {
			return nil
		}

		match := db.NewMatch(like.FromUserID, like.ToUserID)
		ok, err := s.matchRepo.WithTx(tx).CreateIfAbsent(ctx, match)
		if err != nil {
			return err
		}
		if ok {
			created = match
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Storage("record like", err)
	}

	if created != nil {
		s.appCtx.Logger.Info("match created",
			"match_id", created.ID, "from", like.FromUserID, "to", like.ToUserID)
	}
	return created, nil
}

// SwipeResult reports the outcome of a swipe to the caller.
type SwipeResult struct {
	Success      bool
	Matched      bool
	Match        *db.Match
	Direction    db.Direction
	LimitReached bool
	Message      string
}

// ProcessSwipe is the full swipe flow: daily-quota gate, like/match
// recording, then the undo slot. Hitting a limit is reported as a non-error
// result so the caller can render it.
func (s *Service) ProcessSwipe(ctx context.Context, userID, candidateID uuid.UUID, liked bool) (SwipeResult, error) {
	if liked {
		ok, err := s.quota.CanLike(ctx, userID)
		if err != nil {
			return SwipeResult{}, err
		}
		if !ok {
			return SwipeResult{LimitReached: true, Message: "Daily like limit reached."}, nil
		}
	} else {
		ok, err := s.quota.CanPass(ctx, userID)
		if err != nil {
			return SwipeResult{}, err
		}
		if !ok {
			return SwipeResult{LimitReached: true, Message: "Daily pass limit reached."}, nil
		}
	}

	direction := db.DirectionPass
	if liked {
		direction = db.DirectionLike
	}
	like := &db.Like{FromUserID: userID, ToUserID: candidateID, Direction: direction}

	match, err := s.RecordLike(ctx, like)
	if err != nil {
		return SwipeResult{}, err
	}

	if err := s.undo.RecordSwipe(ctx, userID, like, match); err != nil {
		return SwipeResult{}, err
	}

	result := SwipeResult{Success: true, Direction: direction}
	switch {
	case match != nil:
		result.Matched = true
		result.Match = match
		result.Message = "It's a match!"
	case liked:
		result.Message = "Liked!"
	default:
		result.Message = "Passed."
	}
	return result, nil
}

// PendingLiker is a user who liked you and has not been responded to.
type PendingLiker struct {
	User    db.User
	LikedAt int64 // unix millis
}

// ListPendingLikers returns incoming likes awaiting a response, newest
// first, excluding blocked users and pairs that already matched.
func (s *Service) ListPendingLikers(ctx context.Context, userID uuid.UUID, token *string, limit int) ([]PendingLiker, *string, error) {
	likers, nextToken, err := s.likeRepo.GetPendingLikers(ctx, userID, token, limit)
	if err != nil {
		return nil, nil, apperr.Storage("list pending likers", err)
	}

	blocked, err := s.blockRepo.BlockedUserIDs(ctx, userID)
	if err != nil {
		return nil, nil, apperr.Storage("list pending likers", err)
	}
	matches, err := s.matchRepo.AllFor(ctx, userID)
	if err != nil {
		return nil, nil, apperr.Storage("list pending likers", err)
	}

	excluded := make(map[uuid.UUID]struct{}, len(blocked)+len(matches))
	for _, id := range blocked {
		excluded[id] = struct{}{}
	}
	for i := range matches {
		excluded[matches[i].OtherUser(userID)] = struct{}{}
	}

	ids := make([]uuid.UUID, 0, len(likers))
	for _, l := range likers {
		if _, skip := excluded[l.LikerID]; !skip {
			ids = append(ids, l.LikerID)
		}
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, apperr.Storage("list pending likers", err)
	}

	result := make([]PendingLiker, 0, len(ids))
	for _, l := range likers {
		user, ok := users[l.LikerID]
		if !ok || user.State != db.UserActive {
			continue
		}
		result = append(result, PendingLiker{User: user, LikedAt: l.LikedAt.UnixMilli()})
	}
	return result, nextToken, nil
}

func (s *Service) requireUsers(ctx context.Context, ids ...uuid.UUID) error {
	for _, id := range ids {
		user, err := s.userRepo.Get(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Validation("unknown user %s", id)
		}
		if err != nil {
			return apperr.Storage("load user", err)
		}
		if user.State != db.UserActive {
			return apperr.Validation("user %s is not active", id)
		}
	}
	return nil
}
