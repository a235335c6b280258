package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoPassword is the plain-text password of every seeded user.
const DemoPassword = "password"

var (
	demoCampuses = []Campus{
		{Name: "North Campus", Code: "NORTH", BaseLatitude: ptr(14.6537), BaseLongitude: ptr(121.0685)},
		{Name: "South Campus", Code: "SOUTH", BaseLatitude: ptr(14.1675), BaseLongitude: ptr(121.2433)},
		{Name: "Online Campus", Code: "ONLINE"},
	}
	demoPrograms  = []string{"Computer Science", "Mathematics", "Biology", "Economics"}
	demoYears     = []string{"1", "2", "3", "4"}
	demoInterests = []string{"chess", "hiking", "jazz", "robotics", "film", "running", "poetry", "gaming", "cooking", "volunteering"}
	demoCourses   = []string{"Algorithms", "Linear Algebra", "Genetics", "Microeconomics", "Databases"}
	demoGoals     = []string{"graduate school", "startup", "research", "teaching"}
	demoIntents   = []string{IntentDating, IntentFriend, IntentStudyBuddy}
)

// SeedDemoData resets the matching tables and fills them with demo campuses, users, swipes
// and the mutual matches those swipes imply.
//
// Behavior:
//  1. Clears notifications, assignments, matches, swipe intents, users and campuses.
//  2. Creates the demo campuses and 20 users spread over them, located near their campus base.
//  3. Generates swipes with ~70% likes; every 3rd pair is made reciprocal.
//  4. Derives one canonical match row per reciprocal like pair.
//
// Compatible with both MySQL and SQLite.
func SeedDemoData(db *gorm.DB, r *rand.Rand, logger *slog.Logger) error {
	for _, table := range []string{"notifications", "proximity_assignments", "matches", "swipe_intents", "follows", "blocks", "users", "campuses"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if db.Dialector.Name() == "mysql" {
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE campuses AUTO_INCREMENT = 1")
	}
	logger.Info("cleared existing data")

	campuses := append([]Campus(nil), demoCampuses...)
	if err := db.Create(&campuses).Error; err != nil {
		return fmt.Errorf("failed to seed campuses: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		campus := campuses[i%len(campuses)]
		gender := "male"
		if i > 10 {
			gender = "female"
		}
		u := User{
			Username:                  fmt.Sprintf("student%d", i),
			Email:                     fmt.Sprintf("student%d@campus.example", i),
			PasswordHash:              string(hash),
			DisplayName:               fmt.Sprintf("Student %d", i),
			Campus:                    campus.Name,
			AcademicProgram:           demoPrograms[r.Intn(len(demoPrograms))],
			YearLevel:                 demoYears[r.Intn(len(demoYears))],
			Bio:                       fmt.Sprintf("Student %d, happy to meet people around campus.", i),
			Courses:                   Tags(pick(r, demoCourses, 2)...),
			AcademicGoals:             Tags(pick(r, demoGoals, 1)...),
			Interests:                 Tags(pick(r, demoInterests, 3)...),
			Gender:                    gender,
			ProfileCompleted:          i%7 != 0,
			NearbyMatchEnabled:        i%2 == 0,
			NearbyMatchRadiusM:        500 + 250*r.Intn(7),
			LastSeenAt:                ptr(now.Add(-time.Duration(r.Intn(500)) * time.Hour)),
			ResearchInterests:         Tags(),
			ExtracurricularActivities: Tags(),
		}
		if i%5 == 0 {
			u.BoostExpiresAt = ptr(now.Add(24 * time.Hour))
		}
		if campus.HasBaseLocation() {
			// within ~300 m of the base point
			u.Latitude = ptr(*campus.BaseLatitude + (r.Float64()-0.5)*0.005)
			u.Longitude = ptr(*campus.BaseLongitude + (r.Float64()-0.5)*0.005)
			u.LocationUpdatedAt = ptr(now)
		}
		users = append(users, u)
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	logger.Info("seeded users", "count", len(users), "campuses", len(campuses))

	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"intent", "updated_at"}),
	}
	swipe := func(actor, target uint64, intent string, at time.Time) error {
		return db.Clauses(upsert).Create(&SwipeIntent{
			ActorID:   actor,
			TargetID:  target,
			Intent:    intent,
			CreatedAt: at,
			UpdatedAt: at,
		}).Error
	}

	counter, matches := 0, 0
	for _, actor := range users {
		for j := 0; j < 12; j++ { // each user swipes on ~12 others
			target := users[r.Intn(len(users))]
			if actor.ID == target.ID {
				continue
			}
			at := now.Add(-time.Duration(r.Intn(72*60)) * time.Minute)

			intent := IntentIgnored
			if r.Intn(100) < 70 {
				intent = demoIntents[r.Intn(len(demoIntents))]
			}

			// guarantee a mutual like every 3rd pair
			if counter%3 == 0 {
				intent = demoIntents[r.Intn(len(demoIntents))]
				if err := swipe(target.ID, actor.ID, intent, at); err != nil {
					return fmt.Errorf("failed to seed swipe: %w", err)
				}
			}
			if err := swipe(actor.ID, target.ID, intent, at); err != nil {
				return fmt.Errorf("failed to seed swipe: %w", err)
			}
			counter++
		}
	}

	// derive canonical matches from the final swipe state
	var pairs []SwipeIntent
	if err := db.
		Table("swipe_intents AS a").
		Select("a.actor_id, a.target_id, a.intent, a.updated_at").
		Joins("JOIN swipe_intents AS b ON b.actor_id = a.target_id AND b.target_id = a.actor_id").
		Where("a.actor_id < a.target_id AND a.intent IN ? AND b.intent IN ?", LikeIntents, LikeIntents).
		Scan(&pairs).Error; err != nil {
		return fmt.Errorf("failed to find reciprocal likes: %w", err)
	}
	for _, p := range pairs {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&Match{
			LowID:     p.ActorID,
			HighID:    p.TargetID,
			Intent:    p.Intent,
			CreatedAt: p.UpdatedAt,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to seed match: %w", res.Error)
		}
		matches += int(res.RowsAffected)
	}
	logger.Info("seeded swipes", "swipes", counter, "matches", matches)

	return nil
}

// pick returns n distinct values from values.
func pick(r *rand.Rand, values []string, n int) []string {
	idx := r.Perm(len(values))
	out := make([]string, 0, n)
	for _, i := range idx[:min(n, len(values))] {
		out = append(out, values[i])
	}
	return out
}

func ptr[T any](v T) *T { return &v }
