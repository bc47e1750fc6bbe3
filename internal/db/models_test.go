package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMatchIDOrderIndependent(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	id1 := MatchID(a, b)
	id2 := MatchID(b, a)
	assert.Equal(t, id1, id2)

	// smaller uuid comes first
	lo, hi := SortPair(a, b)
	assert.Equal(t, lo.String()+"_"+hi.String(), id1)
	assert.Less(t, lo.String(), hi.String())
}

func TestNewMatch(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	match := NewMatch(a, b)

	assert.Equal(t, MatchID(a, b), match.ID)
	assert.Equal(t, MatchActive, match.State)
	assert.True(t, match.IsActive())
	assert.True(t, match.Involves(a))
	assert.True(t, match.Involves(b))
	assert.False(t, match.Involves(uuid.New()))
	assert.Equal(t, b, match.OtherUser(a))
	assert.Equal(t, a, match.OtherUser(b))
}

func TestUndoStateExpired(t *testing.T) {
	now := time.Now()
	state := UndoState{ExpiresAt: now.Add(10 * time.Second)}

	assert.False(t, state.Expired(now))
	assert.False(t, state.Expired(now.Add(10*time.Second))) // boundary is inclusive
	assert.True(t, state.Expired(now.Add(10*time.Second+time.Millisecond)))
}

func TestDealbreakersHasAny(t *testing.T) {
	assert.False(t, Dealbreakers{}.HasAny())
	assert.True(t, Dealbreakers{AcceptableSmoking: []string{"NEVER"}}.HasAny())

	h := 170
	assert.True(t, Dealbreakers{MinHeightCm: &h}.HasAny())

	gap := 5
	assert.True(t, Dealbreakers{MaxAgeDifference: &gap}.HasAny())
}
