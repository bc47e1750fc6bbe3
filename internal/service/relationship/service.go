// Package relationship drives the match state machine for non-swipe
// transitions: block, unmatch, friend-zone request/accept/decline, and
// graceful exit.
package relationship

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

// Service implements the relationship transition engine. Multi-row
// transitions (accept, graceful exit, block) are all-or-nothing: any
// failure leaves every effect unapplied.
type Service struct {
	appCtx      *app.AppContext
	matchRepo   *repository.MatchRepository
	requestRepo *repository.FriendRequestRepository
	notifRepo   *repository.NotificationRepository
	convoRepo   *repository.ConversationRepository
	blockRepo   *repository.BlockRepository
	now         func() time.Time
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		matchRepo:   repository.NewMatchRepository(appCtx.DB),
		requestRepo: repository.NewFriendRequestRepository(appCtx.DB),
		notifRepo:   repository.NewNotificationRepository(appCtx.DB),
		convoRepo:   repository.NewConversationRepository(appCtx.DB),
		blockRepo:   repository.NewBlockRepository(appCtx.DB),
		now:         time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// RequestFriendZone creates a PENDING friend request from requester to
// target. Requires an ACTIVE match between the pair and no pending request
// in either direction.
func (s *Service) RequestFriendZone(ctx context.Context, requesterID, targetID uuid.UUID) (*db.FriendRequest, error) {
	if requesterID == targetID {
		return nil, apperr.Validation("cannot friend-zone yourself")
	}

	match, err := s.activeMatch(ctx, requesterID, targetID)
	if err != nil {
		return nil, err
	}

	request := &db.FriendRequest{
		FromUserID: requesterID,
		ToUserID:   targetID,
		Status:     db.FriendRequestPending,
	}

	// The duplicate check runs inside the insert transaction; the unique
	// pair key on the request table backstops any interleaving the locking
	// read misses.
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, err := s.requestRepo.WithTx(tx).PendingBetween(ctx, requesterID, targetID)
		if err != nil {
			return err
		}
		if pending != nil {
			return apperr.StateConflict("a friend request is already pending between these users")
		}

		if err := s.requestRepo.WithTx(tx).Save(ctx, request); err != nil {
			return err
		}
		return s.notifRepo.WithTx(tx).Save(ctx, &db.Notification{
			UserID:   targetID,
			Type:     db.NotifFriendRequest,
			Title:    "New friend request",
			Body:     "Your match wants to stay connected as friends.",
			Metadata: map[string]string{"from_user_id": requesterID.String(), "match_id": match.ID},
		})
	})
	if err != nil {
		return nil, apperr.Storage("request friend zone", err)
	}

	s.appCtx.Logger.Info("friend zone requested", "from", requesterID, "to", targetID)
	return request, nil
}

// AcceptFriendZone accepts a pending request. Only the request's target may
// accept. In one transaction: the request becomes ACCEPTED, the match moves
// ACTIVE→FRIEND_ZONED, and the requester is notified.
func (s *Service) AcceptFriendZone(ctx context.Context, requestID, accepterID uuid.UUID) error {
	request, err := s.pendingRequest(ctx, requestID, accepterID)
	if err != nil {
		return err
	}

	match, err := s.activeMatch(ctx, request.FromUserID, request.ToUserID)
	if err != nil {
		return err
	}

	now := s.now()
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request.Status = db.FriendRequestAccepted
		request.RespondedAt = &now
		ok, err := s.requestRepo.WithTx(tx).Resolve(ctx, request)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.StateConflict("friend request is no longer pending")
		}

		if err := s.endMatch(ctx, tx, match, request.FromUserID, db.MatchFriendZoned, db.ReasonFriendZone, now); err != nil {
			return err
		}

		return s.notifRepo.WithTx(tx).Save(ctx, &db.Notification{
			UserID:   request.FromUserID,
			Type:     db.NotifFriendRequestAccepted,
			Title:    "Friend request accepted",
			Body:     "Your match agreed to stay connected as friends.",
			Metadata: map[string]string{"responder_id": accepterID.String(), "match_id": match.ID},
		})
	})
	if err != nil {
		return apperr.Storage("accept friend zone", err)
	}

	s.appCtx.Logger.Info("friend zone accepted", "request", requestID, "match", match.ID)
	return nil
}

// DeclineFriendZone declines a pending request. Only the target may
// decline; the match is untouched.
func (s *Service) DeclineFriendZone(ctx context.Context, requestID, declinerID uuid.UUID) error {
	request, err := s.pendingRequest(ctx, requestID, declinerID)
	if err != nil {
		return err
	}

	now := s.now()
	request.Status = db.FriendRequestDeclined
	request.RespondedAt = &now
	ok, err := s.requestRepo.Resolve(ctx, request)
	if err != nil {
		return apperr.Storage("decline friend zone", err)
	}
	if !ok {
		return apperr.StateConflict("friend request is no longer pending")
	}
	return nil
}

// GracefulExit unilaterally ends an ACTIVE match. In one transaction the
// match moves to GRACEFUL_EXIT, the pair's conversation (if any) is
// archived, and the other party is notified.
func (s *Service) GracefulExit(ctx context.Context, initiatorID, targetID uuid.UUID) error {
	match, err := s.activeMatch(ctx, initiatorID, targetID)
	if err != nil {
		return err
	}

	now := s.now()
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.endMatch(ctx, tx, match, initiatorID, db.MatchGracefulExit, db.ReasonGracefulExit, now); err != nil {
			return err
		}

		convo, err := s.convoRepo.WithTx(tx).GetByPair(ctx, initiatorID, targetID)
		if err != nil {
			return err
		}
		if convo != nil {
			if err := s.convoRepo.WithTx(tx).Archive(ctx, convo.ID, db.ReasonGracefulExit, now); err != nil {
				return err
			}
		}

		return s.notifRepo.WithTx(tx).Save(ctx, &db.Notification{
			UserID:   targetID,
			Type:     db.NotifGracefulExit,
			Title:    "A connection has ended",
			Body:     "The other person has gracefully moved on from this match.",
			Metadata: map[string]string{"initiator_id": initiatorID.String(), "match_id": match.ID},
		})
	})
	if err != nil {
		return apperr.Storage("graceful exit", err)
	}

	s.appCtx.Logger.Info("graceful exit", "match", match.ID, "initiator", initiatorID)
	return nil
}

// Unmatch ends an ACTIVE match without further fan-out.
func (s *Service) Unmatch(ctx context.Context, userID, otherID uuid.UUID) error {
	match, err := s.activeMatch(ctx, userID, otherID)
	if err != nil {
		return err
	}
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.endMatch(ctx, tx, match, userID, db.MatchUnmatched, db.ReasonUnmatch, s.now())
	})
	if err != nil {
		return apperr.Storage("unmatch", err)
	}
	return nil
}

// Block writes the Block record and, when an ACTIVE match exists between
// the pair, ends it as BLOCKED in the same transaction. Blocking works with
// or without a match.
func (s *Service) Block(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if blockerID == blockedID {
		return apperr.Validation("cannot block yourself")
	}

	match, err := s.matchRepo.Get(ctx, db.MatchID(blockerID, blockedID))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Storage("load match", err)
	}
	if match != nil && !match.IsActive() {
		match = nil // already ended, only the block record is written
	}

	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.blockRepo.WithTx(tx).Save(ctx, &db.Block{BlockerID: blockerID, BlockedID: blockedID}); err != nil {
			return err
		}
		if match != nil {
			return s.endMatch(ctx, tx, match, blockerID, db.MatchBlocked, db.ReasonBlock, s.now())
		}
		return nil
	})
	if err != nil {
		return apperr.Storage("block", err)
	}

	s.appCtx.Logger.Info("user blocked", "blocker", blockerID, "blocked", blockedID)
	return nil
}

// NotificationsFor lists the user's notifications, newest first.
func (s *Service) NotificationsFor(ctx context.Context, userID uuid.UUID, limit int) ([]db.Notification, error) {
	notifications, err := s.notifRepo.ForUser(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Storage("list notifications", err)
	}
	return notifications, nil
}

// PendingRequestsFor lists the PENDING requests addressed to the user.
func (s *Service) PendingRequestsFor(ctx context.Context, userID uuid.UUID) ([]db.FriendRequest, error) {
	requests, err := s.requestRepo.PendingFor(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("list friend requests", err)
	}
	return requests, nil
}

// activeMatch loads the pair's match and requires it to be ACTIVE. A
// missing match is NotFound; an ended one is StateConflict, so callers can
// tell "never matched" from "already over".
func (s *Service) activeMatch(ctx context.Context, u1, u2 uuid.UUID) (*db.Match, error) {
	match, err := s.matchRepo.Get(ctx, db.MatchID(u1, u2))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("no match between these users")
	}
	if err != nil {
		return nil, apperr.Storage("load match", err)
	}
	if !match.IsActive() {
		return nil, apperr.StateConflict("match is %s, not ACTIVE", match.State)
	}
	return match, nil
}

func (s *Service) pendingRequest(ctx context.Context, requestID, responderID uuid.UUID) (*db.FriendRequest, error) {
	request, err := s.requestRepo.Get(ctx, requestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("friend request not found")
	}
	if err != nil {
		return nil, apperr.Storage("load friend request", err)
	}
	if request.ToUserID != responderID {
		return nil, apperr.StateConflict("only the recipient can respond to a friend request")
	}
	if request.Status != db.FriendRequestPending {
		return nil, apperr.StateConflict("friend request is no longer pending")
	}
	return request, nil
}

// endMatch applies a terminal transition inside tx. The write is guarded on
// the stored state still being ACTIVE; losing that race to another ending
// action is a StateConflict and rolls the whole transaction back.
func (s *Service) endMatch(
	ctx context.Context,
	tx *gorm.DB,
	match *db.Match,
	endedBy uuid.UUID,
	state db.MatchState,
	reason db.EndReason,
	now time.Time,
) error {
	match.State = state
	match.EndedAt = &now
	match.EndedBy = &endedBy
	match.EndReason = &reason
	ok, err := s.matchRepo.WithTx(tx).EndActive(ctx, match)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.StateConflict("match is no longer ACTIVE")
	}
	return nil
}
