// Package undo reverses the single most recent swipe per user within a
// fixed time window, atomically with any match it created.
package undo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/repository"
)

// Service tracks one undo slot per user. The window is enforced lazily by
// comparing timestamps at read time; a periodic sweep clears stale slots.
type Service struct {
	appCtx    *app.AppContext
	likeRepo  *repository.LikeRepository
	matchRepo *repository.MatchRepository
	undoRepo  *repository.UndoRepository
	window    time.Duration
	now       func() time.Time
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		likeRepo:  repository.NewLikeRepository(appCtx.DB),
		matchRepo: repository.NewMatchRepository(appCtx.DB),
		undoRepo:  repository.NewUndoRepository(appCtx.DB),
		window:    time.Duration(appCtx.Config.Undo.WindowSeconds) * time.Second,
		now:       time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// RecordSwipe saves the undo slot for the user, replacing any prior one.
// Only the most recent swipe is ever undoable.
func (s *Service) RecordSwipe(ctx context.Context, userID uuid.UUID, like *db.Like, match *db.Match) error {
	state := &db.UndoState{
		UserID:     userID,
		LikeID:     like.ID,
		FromUserID: like.FromUserID,
		ToUserID:   like.ToUserID,
		Direction:  like.Direction,
		ExpiresAt:  s.now().Add(s.window),
	}
	if match != nil {
		id := match.ID
		state.MatchID = &id
	}
	if err := s.undoRepo.Save(ctx, state); err != nil {
		return apperr.Storage("record undo slot", err)
	}
	return nil
}

// CanUndo reports whether an unexpired slot exists. Detecting an expired
// slot discards it.
func (s *Service) CanUndo(ctx context.Context, userID uuid.UUID) (bool, error) {
	state, err := s.undoRepo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Storage("load undo slot", err)
	}
	if state.Expired(s.now()) {
		_ = s.undoRepo.Delete(ctx, userID)
		return false, nil
	}
	return true, nil
}

// SecondsRemaining returns how long the current window still has, 0 when
// none.
func (s *Service) SecondsRemaining(ctx context.Context, userID uuid.UUID) (int, error) {
	state, err := s.undoRepo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Storage("load undo slot", err)
	}
	remaining := int(state.ExpiresAt.Sub(s.now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Result reports what an undo unwound.
type Result struct {
	Direction    db.Direction
	OtherUserID  uuid.UUID
	MatchRemoved bool
}

// Undo reverses the user's most recent swipe.
//
// Fails with NotFound when no slot exists and with Expired when the window
// has passed (discarding the stale slot). On success one transaction
// deletes the like, the match it created (if any), and the slot itself, so
// the same action can never be undone twice.
func (s *Service) Undo(ctx context.Context, userID uuid.UUID) (Result, error) {
	state, err := s.undoRepo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Result{}, apperr.NotFound("no swipe to undo")
	}
	if err != nil {
		return Result{}, apperr.Storage("load undo slot", err)
	}

	if state.Expired(s.now()) {
		_ = s.undoRepo.Delete(ctx, userID)
		return Result{}, apperr.Expired("undo window expired")
	}

	result := Result{Direction: state.Direction, OtherUserID: state.ToUserID}
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.likeRepo.WithTx(tx).DeleteByID(ctx, state.LikeID); err != nil {
			return err
		}
		if state.MatchID != nil {
			removed, err := s.matchRepo.WithTx(tx).Delete(ctx, *state.MatchID)
			if err != nil {
				return err
			}
			result.MatchRemoved = removed
		}
		return s.undoRepo.WithTx(tx).Delete(ctx, userID)
	})
	if err != nil {
		// Slot left intact so the caller may retry.
		return Result{}, apperr.Storage("undo", err)
	}

	s.appCtx.Logger.Info("swipe undone",
		"user", userID, "direction", result.Direction, "match_removed", result.MatchRemoved)
	return result, nil
}

// Clear drops the user's undo slot without reversing anything.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.undoRepo.Delete(ctx, userID); err != nil {
		return apperr.Storage("clear undo slot", err)
	}
	return nil
}

// DeleteExpired removes every slot past its window. Called by the sweeper.
func (s *Service) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.undoRepo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, apperr.Storage("sweep undo slots", err)
	}
	return n, nil
}

// StartSweeper runs the expiry sweep on the configured interval until the
// context is canceled.
func (s *Service) StartSweeper(ctx context.Context) {
	interval := time.Duration(s.appCtx.Config.Undo.SweepIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := s.DeleteExpired(ctx, s.now()); err != nil {
					s.appCtx.Logger.Error("undo sweep failed", "err", err)
				} else if n > 0 {
					s.appCtx.Logger.Debug("undo sweep", "removed", n)
				}
			}
		}
	}()
}
