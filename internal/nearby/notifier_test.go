package nearby_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/clock"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/events"
	"github.com/oggyb/campus-match/internal/ledger"
	"github.com/oggyb/campus-match/internal/nearby"
	"github.com/oggyb/campus-match/internal/notify"
	"github.com/oggyb/campus-match/internal/proximity"
	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/testutil"
)

const (
	baseLat = 14.0
	baseLon = 121.0
	// latitude delta of one meter on the Haversine sphere
	meter = 1 / 111194.93
)

type fixture struct {
	gdb      *gorm.DB
	rec      *events.Recorder
	clock    *clock.Mock
	notifier *nearby.Notifier
}

func setup(t *testing.T, users ...db.User) *fixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	_, rc := testutil.NewRedis(t)
	rec := &events.Recorder{}
	clk := clock.NewMock(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	logger := testutil.Logger()
	cfg := config.Default()

	testutil.Campus(t, gdb, "Diliman", "UPD", testutil.Float(baseLat), testutil.Float(baseLon))
	testutil.CreateUsers(t, gdb, users...)

	profiles := repository.NewProfileRepository(gdb)
	notifications := notify.NewService(repository.NewNotificationRepository(gdb), rec, clk, logger)
	l := ledger.New(
		repository.NewSwipeRepository(gdb),
		repository.NewMatchRepository(gdb),
		profiles,
		notifications,
		rc,
		clk,
		logger,
	)
	engine := proximity.New(
		profiles,
		repository.NewCampusRepository(gdb, rc, time.Minute, logger),
		repository.NewAssignmentRepository(gdb),
		nil,
		clk,
		cfg.Proximity,
		logger,
	)
	n := nearby.New(profiles, engine, l, notifications, rec, clk, cfg.Nearby, logger)
	return &fixture{gdb: gdb, rec: rec, clock: clk, notifier: n}
}

func (f *fixture) match(t *testing.T, a, b uint64) {
	t.Helper()
	_, err := repository.NewMatchRepository(f.gdb).Create(context.Background(), a, b, db.IntentDating, f.clock.Now())
	require.NoError(t, err)
}

func (f *fixture) nearbyRows(t *testing.T) []db.Notification {
	t.Helper()
	var rows []db.Notification
	require.NoError(t, f.gdb.Where("type = ?", notify.TypeNearbyMatch).Order("id").Find(&rows).Error)
	return rows
}

func nearbyUser(id uint64, radius int, lat, lon float64) db.User {
	u := testutil.Profile(id, "Diliman", "CS")
	u.NearbyMatchEnabled = true
	u.NearbyMatchRadiusM = radius
	u.Latitude = testutil.Float(lat)
	u.Longitude = testutil.Float(lon)
	return u
}

func TestUpdateLocation_PersistsAndRejectsBadInput(t *testing.T) {
	f := setup(t, testutil.Profile(1, "Diliman", "CS"))
	ctx := context.Background()

	require.NoError(t, f.notifier.UpdateLocation(ctx, 1, baseLat, baseLon))

	var u db.User
	require.NoError(t, f.gdb.First(&u, 1).Error)
	require.True(t, u.HasLocation())
	assert.Equal(t, baseLat, *u.Latitude)
	require.NotNil(t, u.LocationUpdatedAt)
	assert.True(t, u.LocationUpdatedAt.Equal(f.clock.Now()))

	assert.ErrorIs(t, f.notifier.UpdateLocation(ctx, 1, 91, 0), nearby.ErrInvalidCoordinates)
	assert.ErrorIs(t, f.notifier.UpdateLocation(ctx, 404, 1, 1), gorm.ErrRecordNotFound)
	assert.Empty(t, f.rec.Events(), "no partner, no matches")
}

func TestUpdateLocation_PublishesPartnerProximity(t *testing.T) {
	partner := testutil.Profile(2, "Diliman", "CS")
	partner.Latitude = testutil.Float(baseLat + 5*meter)
	partner.Longitude = testutil.Float(baseLon)
	f := setup(t, testutil.Profile(1, "Diliman", "CS"), partner)
	ctx := context.Background()
	require.NoError(t, repository.NewAssignmentRepository(f.gdb).Upsert(ctx, 1, 2, f.clock.Now()))

	require.NoError(t, f.notifier.UpdateLocation(ctx, 1, baseLat, baseLon))

	got := f.rec.Named(events.NameMatchProximityUpdated)
	require.Len(t, got, 1)
	evt := got[0].(events.MatchProximityUpdated)
	assert.Equal(t, uint64(1), evt.UserID)
	assert.Equal(t, uint64(2), evt.MatchUserID)
	require.NotNil(t, evt.DistanceMeters)
	assert.Equal(t, 5, *evt.DistanceMeters)
	require.NotNil(t, evt.ProximityPercentage)
	assert.Equal(t, 99, *evt.ProximityPercentage)
	assert.True(t, evt.IsNearby10m)
	assert.Equal(t, []string{"private-user.1", "private-user.2"}, evt.Channels())
}

func TestUpdateLocation_PartnerWithoutLocationIsUnknown(t *testing.T) {
	f := setup(t, testutil.Profile(1, "Diliman", "CS"), testutil.Profile(2, "Diliman", "CS"))
	ctx := context.Background()
	require.NoError(t, repository.NewAssignmentRepository(f.gdb).Upsert(ctx, 1, 2, f.clock.Now()))

	require.NoError(t, f.notifier.UpdateLocation(ctx, 1, baseLat, baseLon))

	got := f.rec.Named(events.NameMatchProximityUpdated)
	require.Len(t, got, 1)
	evt := got[0].(events.MatchProximityUpdated)
	assert.Nil(t, evt.DistanceMeters)
	assert.Nil(t, evt.ProximityPercentage)
	assert.False(t, evt.IsNearby10m)
}

func TestUpdateLocation_NearbyMatchCooldown(t *testing.T) {
	f := setup(t,
		nearbyUser(1, 500, baseLat, baseLon),
		nearbyUser(2, 500, baseLat+300*meter, baseLon),
	)
	f.match(t, 1, 2)
	ctx := context.Background()

	require.NoError(t, f.notifier.UpdateLocation(ctx, 1, baseLat, baseLon))
	rows := f.nearbyRows(t)
	require.Len(t, rows, 2, "one per side")
	assert.Equal(t, uint64(1), rows[0].UserID)
	assert.Equal(t, uint64(2), rows[0].FromUserID)
	assert.Equal(t, uint64(2), rows[1].UserID)
	assert.Equal(t, uint64(1), rows[1].FromUserID)
	assert.JSONEq(t, `{"distance_m":300,"distance_text":"300 m away"}`, string(rows[0].Data))
	assert.Len(t, f.rec.Named(events.NameNotificationCreated), 2)

	// repeated updates inside the window, from either side, stay silent
	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Hour)
		require.NoError(t, f.notifier.UpdateLocation(ctx, 1, baseLat, baseLon))
		require.NoError(t, f.notifier.UpdateLocation(ctx, 2, baseLat+300*meter, baseLon))
	}
	assert.Len(t, f.nearbyRows(t), 2)

	f.clock.Advance(21*time.Hour + time.Minute)
	require.NoError(t, f.notifier.UpdateLocation(ctx, 2, baseLat+300*meter, baseLon))
	assert.Len(t, f.nearbyRows(t), 4, "window elapsed")
}

func TestUpdateLocation_NearbyMatchFilters(t *testing.T) {
	disabled := nearbyUser(5, 2000, baseLat+100*meter, baseLon)
	disabled.NearbyMatchEnabled = false
	unlocated := nearbyUser(6, 2000, 0, 0)
	unlocated.Latitude, unlocated.Longitude = nil, nil

	f := setup(t,
		nearbyUser(1, 100, baseLat, baseLon), // clamps up to 500
		nearbyUser(2, 5000, baseLat+1500*meter, baseLon),
		nearbyUser(3, 2000, baseLat+450*meter, baseLon),
		nearbyUser(4, 500, baseLat+200*meter, baseLon),
		disabled,
		unlocated,
	)
	for id := uint64(2); id <= 6; id++ {
		f.match(t, 1, id)
	}

	require.NoError(t, f.notifier.UpdateLocation(context.Background(), 1, baseLat, baseLon))

	pairs := map[uint64]bool{}
	for _, r := range f.nearbyRows(t) {
		if r.UserID != 1 {
			pairs[r.UserID] = true
		}
	}
	assert.Equal(t, map[uint64]bool{3: true, 4: true}, pairs)
}

func TestUpdateLocation_FeatureDisabledSkipsScan(t *testing.T) {
	me := nearbyUser(1, 500, baseLat, baseLon)
	me.NearbyMatchEnabled = false
	f := setup(t, me, nearbyUser(2, 500, baseLat+10*meter, baseLon))
	f.match(t, 1, 2)

	require.NoError(t, f.notifier.UpdateLocation(context.Background(), 1, baseLat, baseLon))
	assert.Empty(t, f.nearbyRows(t))
}

func TestUpdateLocation_UnmatchedUsersAreNotNotified(t *testing.T) {
	f := setup(t,
		nearbyUser(1, 500, baseLat, baseLon),
		nearbyUser(2, 500, baseLat+10*meter, baseLon),
	)

	require.NoError(t, f.notifier.UpdateLocation(context.Background(), 1, baseLat, baseLon))
	assert.Empty(t, f.nearbyRows(t))
}
