// Package testutil wires in-memory storage for package tests.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
)

// NewDB opens a private shared-cache sqlite database with the full schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err, "failed to open sqlite")

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// NewRedis starts a miniredis server and returns a cache bound to it.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *cache.RedisCache) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)

	rc := cache.NewRedisCache(&config.Config{Redis: config.RedisConfig{Addr: mr.Addr()}})
	t.Cleanup(func() { _ = rc.Client.Close() })
	return mr, rc
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }

// Profile returns a matchable user on the given campus and program.
func Profile(id uint64, campus, program string) db.User {
	return db.User{
		ID:               id,
		Campus:           campus,
		AcademicProgram:  program,
		ProfileCompleted: true,
	}
}

// CreateUsers inserts users, filling identity columns the schema requires.
func CreateUsers(t *testing.T, gdb *gorm.DB, users ...db.User) {
	t.Helper()
	for i := range users {
		u := &users[i]
		if u.Username == "" {
			u.Username = fmt.Sprintf("user%d", u.ID)
		}
		if u.Email == "" {
			u.Email = strings.ToLower(u.Username) + "@campus.test"
		}
		if u.PasswordHash == "" {
			u.PasswordHash = "x"
		}
		if u.DisplayName == "" {
			u.DisplayName = u.Username
		}
		require.NoError(t, gdb.Create(u).Error)
	}
}

// Block records blocker -> blocked.
func Block(t *testing.T, gdb *gorm.DB, blocker, blocked uint64) {
	t.Helper()
	require.NoError(t, gdb.Create(&db.Block{BlockerID: blocker, BlockedID: blocked}).Error)
}

// Follow records follower -> following.
func Follow(t *testing.T, gdb *gorm.DB, follower, following uint64) {
	t.Helper()
	require.NoError(t, gdb.Create(&db.Follow{FollowerID: follower, FollowingID: following}).Error)
}

// Campus inserts a campus with an optional base point.
func Campus(t *testing.T, gdb *gorm.DB, name, code string, lat, lon *float64) db.Campus {
	t.Helper()
	c := db.Campus{Name: name, Code: code, BaseLatitude: lat, BaseLongitude: lon}
	require.NoError(t, gdb.Create(&c).Error)
	return c
}
