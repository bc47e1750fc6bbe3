package discovery

import (
	"slices"

	"github.com/kindling-app/kindling/internal/db"
)

// passesDealbreakers checks the filtering user's dealbreakers against the
// candidate's lifestyle attributes.
//
// Only attributes the filtering user explicitly constrained are checked,
// and an unset attribute on the candidate never disqualifies: dealbreakers
// exclude people who declared an unacceptable value, not people who left
// the field blank.
func passesDealbreakers(filterer, candidate *db.User) bool {
	dbk := filterer.Dealbreakers
	if !dbk.HasAny() {
		return true
	}

	if failsSet(dbk.AcceptableSmoking, candidate.Smoking) {
		return false
	}
	if failsSet(dbk.AcceptableDrinking, candidate.Drinking) {
		return false
	}
	if failsSet(dbk.AcceptableKidsStance, candidate.WantsKids) {
		return false
	}
	if failsSet(dbk.AcceptableLookingFor, candidate.LookingFor) {
		return false
	}
	if failsSet(dbk.AcceptableEducation, candidate.Education) {
		return false
	}

	if candidate.HeightCm != nil {
		if dbk.MinHeightCm != nil && *candidate.HeightCm < *dbk.MinHeightCm {
			return false
		}
		if dbk.MaxHeightCm != nil && *candidate.HeightCm > *dbk.MaxHeightCm {
			return false
		}
	}

	if dbk.MaxAgeDifference != nil && filterer.Age > 0 && candidate.Age > 0 {
		diff := filterer.Age - candidate.Age
		if diff < 0 {
			diff = -diff
		}
		if diff > *dbk.MaxAgeDifference {
			return false
		}
	}

	return true
}

func failsSet(acceptable []string, value *string) bool {
	if len(acceptable) == 0 || value == nil {
		return false
	}
	return !slices.Contains(acceptable, *value)
}
