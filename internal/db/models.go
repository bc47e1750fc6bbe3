package db

import (
	"time"

	"github.com/google/uuid"
)

// Gender of a user or a preference entry.
type Gender string

const (
	GenderMale      Gender = "male"
	GenderFemale    Gender = "female"
	GenderNonBinary Gender = "non_binary"
)

// UserState is the account lifecycle state. Only ACTIVE users are ever
// surfaced as candidates.
type UserState string

const (
	UserIncomplete UserState = "INCOMPLETE"
	UserActive     UserState = "ACTIVE"
	UserBanned     UserState = "BANNED"
)

// Direction of a swipe.
type Direction string

const (
	DirectionLike Direction = "LIKE"
	DirectionPass Direction = "PASS"
)

// MatchState models the match lifecycle. ACTIVE is the initial state; every
// other state is terminal.
type MatchState string

const (
	MatchActive       MatchState = "ACTIVE"
	MatchFriendZoned  MatchState = "FRIEND_ZONED"
	MatchUnmatched    MatchState = "UNMATCHED"
	MatchGracefulExit MatchState = "GRACEFUL_EXIT"
	MatchBlocked      MatchState = "BLOCKED"
)

// EndReason records why a match left the ACTIVE state.
type EndReason string

const (
	ReasonFriendZone   EndReason = "FRIEND_ZONE"
	ReasonGracefulExit EndReason = "GRACEFUL_EXIT"
	ReasonUnmatch      EndReason = "UNMATCH"
	ReasonBlock        EndReason = "BLOCK"
)

// FriendRequestStatus of a friend-zone request.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "PENDING"
	FriendRequestAccepted FriendRequestStatus = "ACCEPTED"
	FriendRequestDeclined FriendRequestStatus = "DECLINED"
)

// Dealbreakers are hard filters a user sets. An empty acceptable set means
// the attribute is not a dealbreaker for that user. Serialized as JSON on
// the users table.
type Dealbreakers struct {
	AcceptableSmoking    []string `json:"acceptable_smoking,omitempty"`
	AcceptableDrinking   []string `json:"acceptable_drinking,omitempty"`
	AcceptableKidsStance []string `json:"acceptable_kids_stance,omitempty"`
	AcceptableLookingFor []string `json:"acceptable_looking_for,omitempty"`
	AcceptableEducation  []string `json:"acceptable_education,omitempty"`
	MinHeightCm          *int     `json:"min_height_cm,omitempty"`
	MaxHeightCm          *int     `json:"max_height_cm,omitempty"`
	MaxAgeDifference     *int     `json:"max_age_difference,omitempty"`
}

// HasAny reports whether at least one dealbreaker is set.
func (d Dealbreakers) HasAny() bool {
	return len(d.AcceptableSmoking) > 0 ||
		len(d.AcceptableDrinking) > 0 ||
		len(d.AcceptableKidsStance) > 0 ||
		len(d.AcceptableLookingFor) > 0 ||
		len(d.AcceptableEducation) > 0 ||
		d.MinHeightCm != nil ||
		d.MaxHeightCm != nil ||
		d.MaxAgeDifference != nil
}

// User table. Owned by the profile subsystem; this core reads it for
// candidate filtering and validation only.
type User struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey"`
	Name         string    `gorm:"size:64;not null"`
	Email        string    `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	Gender       Gender    `gorm:"size:16;not null"`
	InterestedIn []Gender  `gorm:"serializer:json"`
	Age          int       `gorm:"not null"`
	MinAge       int       `gorm:"default:18"`
	MaxAge       int       `gorm:"default:99"`

	Lat           float64
	Lon           float64
	LocationSet   bool    `gorm:"default:false"`
	MaxDistanceKm float64 `gorm:"default:50"`

	// Lifestyle attributes; nil = not set.
	Smoking    *string `gorm:"size:16"`
	Drinking   *string `gorm:"size:16"`
	WantsKids  *string `gorm:"size:16"`
	LookingFor *string `gorm:"size:16"`
	Education  *string `gorm:"size:24"`
	HeightCm   *int

	Dealbreakers Dealbreakers `gorm:"serializer:json"`

	State     UserState `gorm:"size:16;not null;default:INCOMPLETE;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Like represents a directional swipe decision.
//
// Unique (FromUserID, ToUserID): re-swiping the same ordered pair overwrites
// the previous row (upsert), clearing the soft-delete flag. Undo hard-deletes
// the row.
type Like struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey"`
	FromUserID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_from_to,priority:1;index:idx_to_dir,priority:2"`
	ToUserID   uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_from_to,priority:2;index:idx_to_dir,priority:1"`
	Direction  Direction `gorm:"size:8;not null;index:idx_to_dir,priority:3"`
	Deleted    bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// Match between two users who mutually liked each other.
//
// The primary key is deterministic: both user UUIDs sorted ascending and
// joined with "_", so either side computes the same id without a lookup.
// UserAID is always the lexicographically smaller UUID.
type Match struct {
	ID        string     `gorm:"size:80;primaryKey"`
	UserAID   uuid.UUID  `gorm:"type:char(36);not null;index"`
	UserBID   uuid.UUID  `gorm:"type:char(36);not null;index"`
	State     MatchState `gorm:"size:16;not null;default:ACTIVE"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	EndedAt   *time.Time
	EndedBy   *uuid.UUID `gorm:"type:char(36)"`
	EndReason *EndReason `gorm:"size:16"`
}

// IsActive reports whether the match is still in its initial state.
func (m *Match) IsActive() bool { return m.State == MatchActive }

// Involves reports whether the given user is one of the two participants.
func (m *Match) Involves(userID uuid.UUID) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// OtherUser returns the participant that is not userID. The caller must
// ensure userID is part of the match.
func (m *Match) OtherUser(userID uuid.UUID) uuid.UUID {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}

// MatchID computes the deterministic match id for an unordered user pair.
func MatchID(a, b uuid.UUID) string {
	as, bs := a.String(), b.String()
	if as < bs {
		return as + "_" + bs
	}
	return bs + "_" + as
}

// SortPair orders two user ids the same way MatchID does.
func SortPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() < b.String() {
		return a, b
	}
	return b, a
}

// NewMatch creates an ACTIVE match with the deterministic id.
func NewMatch(a, b uuid.UUID) *Match {
	userA, userB := SortPair(a, b)
	return &Match{
		ID:      MatchID(a, b),
		UserAID: userA,
		UserBID: userB,
		State:   MatchActive,
	}
}

// UndoState is the single undo slot per user. Saving a new slot replaces the
// previous one; a successful undo, the expiry sweep, or the next swipe
// consumes it.
type UndoState struct {
	UserID     uuid.UUID `gorm:"type:char(36);primaryKey"`
	LikeID     uuid.UUID `gorm:"type:char(36);not null"`
	FromUserID uuid.UUID `gorm:"type:char(36);not null"`
	ToUserID   uuid.UUID `gorm:"type:char(36);not null"`
	Direction  Direction `gorm:"size:8;not null"`
	MatchID    *string   `gorm:"size:80"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Expired reports whether the slot is past its window at the given instant.
func (u *UndoState) Expired(now time.Time) bool { return now.After(u.ExpiresAt) }

// FriendRequest asks to turn an ACTIVE match into a platonic connection.
//
// At most one PENDING request may exist between an unordered pair.
// PendingPair holds the pair's match id while the request is PENDING and is
// cleared on resolution; its unique index rejects a concurrent duplicate
// from either side (NULLs never collide).
type FriendRequest struct {
	ID          uuid.UUID           `gorm:"type:char(36);primaryKey"`
	FromUserID  uuid.UUID           `gorm:"type:char(36);not null;index"`
	ToUserID    uuid.UUID           `gorm:"type:char(36);not null;index"`
	Status      FriendRequestStatus `gorm:"size:12;not null;default:PENDING;index"`
	PendingPair *string             `gorm:"size:80;uniqueIndex"`
	CreatedAt   time.Time           `gorm:"autoCreateTime"`
	RespondedAt *time.Time
}

// Notification is a one-way message persisted for later delivery by the
// notification subsystem.
type Notification struct {
	ID        uuid.UUID         `gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID         `gorm:"type:char(36);not null;index"`
	Type      string            `gorm:"size:32;not null"`
	Title     string            `gorm:"size:120;not null"`
	Body      string            `gorm:"size:500"`
	Metadata  map[string]string `gorm:"serializer:json"`
	Read      bool              `gorm:"not null;default:false"`
	CreatedAt time.Time         `gorm:"autoCreateTime"`
}

// Notification types emitted by the relationship engine.
const (
	NotifFriendRequest         = "FRIEND_REQUEST"
	NotifFriendRequestAccepted = "FRIEND_REQUEST_ACCEPTED"
	NotifGracefulExit          = "GRACEFUL_EXIT"
)

// Conversation row owned by the messaging subsystem. This core only archives
// it; the id is the pair's match id.
type Conversation struct {
	ID            string    `gorm:"size:80;primaryKey"`
	UserAID       uuid.UUID `gorm:"type:char(36);not null;index"`
	UserBID       uuid.UUID `gorm:"type:char(36);not null;index"`
	Archived      bool      `gorm:"not null;default:false"`
	ArchiveReason *EndReason `gorm:"size:16"`
	ArchivedAt    *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// Block is a one-directional safety record.
type Block struct {
	BlockerID uuid.UUID `gorm:"type:char(36);primaryKey"`
	BlockedID uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
