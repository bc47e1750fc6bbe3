package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedTestData resets the database and populates it with demo users and
// swipes.
//
// Behavior:
//  1. Clears all tables owned by this core.
//  2. Creates 20 ACTIVE users (10 male, 10 female) spread around central
//     London with lifestyle attributes and hashed passwords.
//  3. Generates a spread of likes/passes with ~70% likes; every 3rd swipe
//     also inserts the reciprocal like so matches form.
func SeedTestData(database *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{
		"undo_states", "notifications", "friend_requests", "conversations",
		"blocks", "matches", "likes", "users",
	} {
		if err := database.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	smoking := []string{"NEVER", "SOMETIMES", "REGULARLY"}
	drinking := []string{"NEVER", "SOCIALLY", "REGULARLY"}
	lookingFor := []string{"CASUAL", "SHORT_TERM", "LONG_TERM", "MARRIAGE", "UNSURE"}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		gender, interested := GenderMale, []Gender{GenderFemale}
		if i > 10 {
			gender, interested = GenderFemale, []Gender{GenderMale}
		}

		smokingVal := smoking[r.Intn(len(smoking))]
		drinkingVal := drinking[r.Intn(len(drinking))]
		lookingVal := lookingFor[r.Intn(len(lookingFor))]
		height := 155 + r.Intn(40)

		user := User{
			ID:           uuid.New(),
			Name:         fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Gender:       gender,
			InterestedIn: interested,
			Age:          22 + r.Intn(20),
			MinAge:       18,
			MaxAge:       55,
			// Scatter within ~20km of central London.
			Lat:           51.5074 + (r.Float64()-0.5)*0.3,
			Lon:           -0.1278 + (r.Float64()-0.5)*0.4,
			LocationSet:   true,
			MaxDistanceKm: 50,
			Smoking:       &smokingVal,
			Drinking:      &drinkingVal,
			LookingFor:    &lookingVal,
			HeightCm:      &height,
			State:         UserActive,
		}
		users = append(users, user)
	}
	if err := database.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	log.Printf("Seeded %d users.", len(users))

	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "from_user_id"}, {Name: "to_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"direction", "deleted", "updated_at"}),
	}

	counter := 0
	for _, actor := range users {
		for j := 0; j < 8; j++ {
			target := users[r.Intn(len(users))]
			if target.ID == actor.ID || target.Gender == actor.Gender {
				continue
			}

			direction := DirectionPass
			if r.Intn(100) < 70 {
				direction = DirectionLike
			}

			// Every 3rd swipe guarantees a mutual like so seeded data
			// contains matches.
			if counter%3 == 0 {
				direction = DirectionLike
				recip := Like{
					ID:         uuid.New(),
					FromUserID: target.ID,
					ToUserID:   actor.ID,
					Direction:  DirectionLike,
				}
				if err := database.Clauses(upsert).Create(&recip).Error; err != nil {
					return fmt.Errorf("failed to seed reciprocal like: %w", err)
				}
			}

			like := Like{
				ID:         uuid.New(),
				FromUserID: actor.ID,
				ToUserID:   target.ID,
				Direction:  direction,
			}
			if err := database.Clauses(upsert).Create(&like).Error; err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}

			if direction == DirectionLike && counter%3 == 0 {
				match := NewMatch(actor.ID, target.ID)
				if err := database.Clauses(clause.OnConflict{DoNothing: true}).Create(match).Error; err != nil {
					return fmt.Errorf("failed to seed match: %w", err)
				}
			}
			counter++
		}
	}
	log.Printf("Seeded %d swipes.", counter)

	return nil
}
