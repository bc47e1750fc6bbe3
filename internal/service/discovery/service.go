// Package discovery filters the active user pool into viable candidates
// under mutual preferences and hard dealbreakers, and runs the once-daily
// featured pick.
package discovery

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/geo"
	"github.com/kindling-app/kindling/internal/repository"
)

// Service implements candidate finding. The SQL bounding-box prefilter in
// the user repository is a conservative over-approximation only; the
// in-memory checks here are the single source of truth for eligibility.
type Service struct {
	appCtx    *app.AppContext
	userRepo  *repository.UserRepository
	likeRepo  *repository.LikeRepository
	blockRepo *repository.BlockRepository
	now       func() time.Time
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		userRepo:  repository.NewUserRepository(appCtx.DB),
		likeRepo:  repository.NewLikeRepository(appCtx.DB),
		blockRepo: repository.NewBlockRepository(appCtx.DB),
		now:       time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// FindCandidates filters the given pool for the seeker. Pure and
// deterministic: no storage access. A candidate must be ACTIVE, outside the
// exclusion set, mutually gender- and age-compatible, within the smaller of
// the two distance preferences (skipped when either side has no location),
// and must pass dealbreakers in both directions. Results are sorted by
// distance, closest first.
func FindCandidates(seeker *db.User, pool []db.User, excluded map[uuid.UUID]struct{}) []db.User {
	candidates := make([]db.User, 0, len(pool))
	for i := range pool {
		c := &pool[i]
		if c.ID == seeker.ID {
			continue
		}
		if _, skip := excluded[c.ID]; skip {
			continue
		}
		if c.State != db.UserActive {
			continue
		}
		if !mutualGenderInterest(seeker, c) {
			continue
		}
		if !mutualAgePreference(seeker, c) {
			continue
		}
		if !withinMutualDistance(seeker, c) {
			continue
		}
		if !passesDealbreakers(seeker, c) || !passesDealbreakers(c, seeker) {
			continue
		}
		candidates = append(candidates, *c)
	}

	slices.SortStableFunc(candidates, func(a, b db.User) int {
		da, dbKm := distanceBetween(seeker, &a), distanceBetween(seeker, &b)
		switch {
		case da < dbKm:
			return -1
		case da > dbKm:
			return 1
		default:
			return 0
		}
	})
	return candidates
}

// FindCandidatesFor loads the prefiltered pool and the exclusion set
// (already swiped ∪ blocked either way ∪ self), then applies the exact
// in-memory filter.
func (s *Service) FindCandidatesFor(ctx context.Context, userID uuid.UUID) ([]db.User, error) {
	seeker, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, apperr.NotFound("unknown user %s", userID)
	}

	pool, err := s.userRepo.FindActiveNear(ctx, seeker)
	if err != nil {
		return nil, apperr.Storage("load candidate pool", err)
	}

	excluded, err := s.exclusionSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := FindCandidates(seeker, pool, excluded)
	s.appCtx.Logger.Debug("candidates found",
		"seeker", userID, "pool", len(pool), "eligible", len(candidates))
	return candidates, nil
}

// Pick is the once-daily featured candidate.
type Pick struct {
	User        db.User
	Date        string
	Reason      string
	AlreadySeen bool
}

// DailyPick returns the seeker's featured candidate for today. The choice
// is deterministic for (user, date): repeated calls surface the same
// person. Unlike regular browsing it ignores preference filters, only
// skipping blocked and already-swiped users. Viewing is tracked separately
// and never counts against the like quota.
func (s *Service) DailyPick(ctx context.Context, userID uuid.UUID) (*Pick, error) {
	seeker, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, apperr.NotFound("unknown user %s", userID)
	}

	pool, err := s.userRepo.FindActive(ctx)
	if err != nil {
		return nil, apperr.Storage("load candidate pool", err)
	}
	excluded, err := s.exclusionSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	eligible := make([]db.User, 0, len(pool))
	for _, c := range pool {
		if c.ID == seeker.ID {
			continue
		}
		if _, skip := excluded[c.ID]; skip {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return nil, apperr.NotFound("no daily pick available")
	}

	// fix the pool ordering before sampling, so the seeded choice does not
	// depend on how the storage layer happened to return rows
	slices.SortFunc(eligible, func(a, b db.User) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	day := s.dayKey()
	rng := rand.New(rand.NewSource(pickSeed(userID, day)))
	picked := eligible[rng.Intn(len(eligible))]

	seen, err := s.appCtx.RedisCache.HasViewedDailyPick(ctx, userID, day)
	if err != nil {
		return nil, apperr.Storage("check daily pick flag", err)
	}

	return &Pick{
		User:        picked,
		Date:        day,
		Reason:      pickReason(seeker, &picked, rng),
		AlreadySeen: seen,
	}, nil
}

// MarkDailyPickViewed flags today's pick as seen.
func (s *Service) MarkDailyPickViewed(ctx context.Context, userID uuid.UUID) error {
	if err := s.appCtx.RedisCache.MarkDailyPickViewed(ctx, userID, s.dayKey()); err != nil {
		return apperr.Storage("mark daily pick viewed", err)
	}
	return nil
}

// HasViewedDailyPick reports whether today's pick was already seen.
func (s *Service) HasViewedDailyPick(ctx context.Context, userID uuid.UUID) (bool, error) {
	seen, err := s.appCtx.RedisCache.HasViewedDailyPick(ctx, userID, s.dayKey())
	if err != nil {
		return false, apperr.Storage("check daily pick flag", err)
	}
	return seen, nil
}

func (s *Service) exclusionSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	swiped, err := s.likeRepo.SwipedUserIDs(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("load swiped set", err)
	}
	blocked, err := s.blockRepo.BlockedUserIDs(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("load blocked set", err)
	}

	excluded := make(map[uuid.UUID]struct{}, len(swiped)+len(blocked)+1)
	excluded[userID] = struct{}{}
	for _, id := range swiped {
		excluded[id] = struct{}{}
	}
	for _, id := range blocked {
		excluded[id] = struct{}{}
	}
	return excluded, nil
}

func (s *Service) dayKey() string {
	loc, err := time.LoadLocation(s.appCtx.Config.Quota.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return s.now().In(loc).Format("2006-01-02")
}

func mutualGenderInterest(seeker, candidate *db.User) bool {
	return slices.Contains(seeker.InterestedIn, candidate.Gender) &&
		slices.Contains(candidate.InterestedIn, seeker.Gender)
}

func mutualAgePreference(seeker, candidate *db.User) bool {
	if seeker.Age == 0 || candidate.Age == 0 {
		return false
	}
	return candidate.Age >= seeker.MinAge && candidate.Age <= seeker.MaxAge &&
		seeker.Age >= candidate.MinAge && seeker.Age <= candidate.MaxAge
}

// withinMutualDistance applies the stricter of the two distance
// preferences. Distance filtering is skipped entirely when either party has
// no location set.
func withinMutualDistance(seeker, candidate *db.User) bool {
	if !seeker.LocationSet || !candidate.LocationSet {
		return true
	}
	dist := geo.DistanceKm(seeker.Lat, seeker.Lon, candidate.Lat, candidate.Lon)
	return dist <= math.Min(seeker.MaxDistanceKm, candidate.MaxDistanceKm)
}

func distanceBetween(a, b *db.User) float64 {
	if !a.LocationSet || !b.LocationSet {
		return math.MaxFloat64
	}
	return geo.DistanceKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

func pickSeed(userID uuid.UUID, day string) int64 {
	h := fnv.New64a()
	h.Write([]byte(userID.String()))
	h.Write([]byte(day))
	return int64(h.Sum64())
}

func pickReason(seeker, picked *db.User, rng *rand.Rand) string {
	reasons := []string{
		"Something different today!",
		"Why not give them a chance?",
		"Could be a pleasant surprise!",
	}

	if seeker.LocationSet && picked.LocationSet {
		dist := geo.DistanceKm(seeker.Lat, seeker.Lon, picked.Lat, picked.Lon)
		if dist < 5 {
			reasons = append(reasons, "Lives nearby!")
		} else if dist < 10 {
			reasons = append(reasons, "Close enough for coffee!")
		}
	}
	if seeker.Age > 0 && picked.Age > 0 {
		diff := seeker.Age - picked.Age
		if diff < 0 {
			diff = -diff
		}
		if diff <= 2 {
			reasons = append(reasons, "Similar age")
		}
	}
	if seeker.LookingFor != nil && picked.LookingFor != nil && *seeker.LookingFor == *picked.LookingFor {
		reasons = append(reasons, "Looking for the same thing")
	}
	if seeker.WantsKids != nil && picked.WantsKids != nil && *seeker.WantsKids == *picked.WantsKids {
		reasons = append(reasons, "Same stance on kids")
	}

	return reasons[rng.Intn(len(reasons))]
}
