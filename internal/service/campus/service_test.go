package campus_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/clock"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/events"
	"github.com/oggyb/campus-match/internal/notify"
	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/service/campus"
	"github.com/oggyb/campus-match/internal/testutil"
	"github.com/oggyb/campus-match/internal/utils/random"
)

//
// Test helpers
//

type fixture struct {
	gdb    *gorm.DB
	mr     *miniredis.Miniredis
	rec    *events.Recorder
	clock  *clock.Mock
	appCtx *app.AppContext
	svc    *campus.Service
}

// setupService wires the service over an in-memory SQLite DB and miniredis.
//
// Dataset:
//   - user1, user2: North / CS / year 3, both into chess and hiking (high compatibility)
//   - user3: South / Math
//   - user4: North, profile incomplete
//   - campus North with a base point at (14.0, 121.0)
func setupService(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	mr, rc := testutil.NewRedis(t)
	rec := &events.Recorder{}
	clk := clock.NewMock(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))

	testutil.Campus(t, gdb, "North", "NRT", testutil.Float(14.0), testutil.Float(121.0))

	student := func(id uint64, campusName, program string, interests ...string) db.User {
		u := testutil.Profile(id, campusName, program)
		u.YearLevel = "3"
		u.Interests = db.Tags(interests...)
		return u
	}
	incomplete := student(4, "North", "CS")
	incomplete.ProfileCompleted = false
	testutil.CreateUsers(t, gdb,
		student(1, "North", "CS", "chess", "hiking"),
		student(2, "North", "CS", "Chess", "hiking"),
		student(3, "South", "Math"),
		incomplete,
	)

	appCtx := app.New(config.Default(), gdb, rc, testutil.Logger())
	appCtx.Clock = clk
	appCtx.Rand = random.New(1)
	appCtx.Publisher = rec

	return &fixture{gdb: gdb, mr: mr, rec: rec, clock: clk, appCtx: appCtx, svc: campus.NewService(appCtx)}
}

func requireReason(t *testing.T, err error, code codes.Code, reason string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, status.Code(err), err.Error())
	assert.Equal(t, reason, svcErr.Reason(err))
}

func (f *fixture) countNotifications(t *testing.T, kind string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.gdb.Model(&db.Notification{}).Where("type = ?", kind).Count(&n).Error)
	return n
}

//
// Tests
//

func TestBrowse_ScoresAndNotifiesHighCompatibility(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	resp, err := f.svc.Browse(ctx, &campus.BrowseRequest{UserID: "1", Page: 1})
	require.NoError(t, err)

	require.Len(t, resp.Items, 2)
	assert.Equal(t, "2", resp.Items[0].ID)
	assert.Equal(t, 79, resp.Items[0].CompatibilityScore)
	assert.Equal(t, []string{"chess", "hiking"}, resp.Items[0].SharedTags)
	assert.Equal(t, "3", resp.Items[1].ID)
	assert.Equal(t, 10, resp.Items[1].CompatibilityScore, "same year only")
	assert.Equal(t, []string{}, resp.Items[1].SharedTags)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.LastPage)

	var row db.Notification
	require.NoError(t, f.gdb.Where("type = ?", notify.TypeHighCompatibilityMatch).First(&row).Error)
	assert.Equal(t, uint64(2), row.UserID)
	assert.Equal(t, uint64(1), row.FromUserID)
	assert.JSONEq(t, `{"compatibility_score":79}`, string(row.Data))

	// once per viewer and candidate inside the window
	_, err = f.svc.Browse(ctx, &campus.BrowseRequest{UserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.countNotifications(t, notify.TypeHighCompatibilityMatch))

	f.clock.Advance(24*time.Hour + time.Minute)
	_, err = f.svc.Browse(ctx, &campus.BrowseRequest{UserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.countNotifications(t, notify.TypeHighCompatibilityMatch))
}

func TestBrowse_Rejections(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	_, err := f.svc.Browse(ctx, &campus.BrowseRequest{UserID: "4"})
	requireReason(t, err, codes.FailedPrecondition, "profile_incomplete")

	_, err = f.svc.Browse(ctx, &campus.BrowseRequest{UserID: "abc"})
	requireReason(t, err, codes.InvalidArgument, "invalid_request")

	_, err = f.svc.Browse(ctx, &campus.BrowseRequest{})
	requireReason(t, err, codes.InvalidArgument, "invalid_request")

	_, err = f.svc.Browse(ctx, &campus.BrowseRequest{UserID: "404"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestDiscover_KeepsSwipedUsers(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	_, err := f.svc.Swipe(ctx, &campus.SwipeRequest{ActorUserID: "1", TargetUserID: "2", Intent: db.IntentIgnored})
	require.NoError(t, err)

	resp, err := f.svc.Discover(ctx, &campus.DiscoverRequest{UserID: "1", Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 3, resp.CurrentPage, "page is echoed")
	ids := []string{resp.Items[0].ID, resp.Items[1].ID}
	assert.ElementsMatch(t, []string{"2", "3"}, ids)

	resp, err = f.svc.Discover(ctx, &campus.DiscoverRequest{UserID: "1", Program: "mat"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "3", resp.Items[0].ID)

	_, err = f.svc.Discover(ctx, &campus.DiscoverRequest{UserID: "4"})
	requireReason(t, err, codes.FailedPrecondition, "profile_incomplete")
}

// TestSwipeAndMutualMatch checks the swipe flow end to end: first like, reciprocal like,
// and the canonical match lookup from either side.
func TestSwipeAndMutualMatch(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	resp, err := f.svc.Swipe(ctx, &campus.SwipeRequest{ActorUserID: "1", TargetUserID: "2", Intent: db.IntentDating})
	require.NoError(t, err)
	assert.False(t, resp.Matched)

	resp, err = f.svc.Swipe(ctx, &campus.SwipeRequest{ActorUserID: "2", TargetUserID: "1", Intent: db.IntentFriend})
	require.NoError(t, err)
	assert.True(t, resp.Matched)
	assert.Equal(t, db.IntentFriend, resp.Intent)
	require.NotNil(t, resp.OtherUser)
	assert.Equal(t, uint64(1), resp.OtherUser.ID)

	for _, pair := range [][2]string{{"1", "2"}, {"2", "1"}} {
		m, err := f.svc.AreMatched(ctx, &campus.AreMatchedRequest{UserID: pair[0], OtherUserID: pair[1]})
		require.NoError(t, err)
		assert.True(t, m.Matched)
	}
	m, err := f.svc.AreMatched(ctx, &campus.AreMatchedRequest{UserID: "1", OtherUserID: "3"})
	require.NoError(t, err)
	assert.False(t, m.Matched)

	assert.Equal(t, int64(1), f.countNotifications(t, notify.TypeMutualMatch))
}

func TestSwipe_Rejections(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	_, err := f.svc.Swipe(ctx, &campus.SwipeRequest{ActorUserID: "1", TargetUserID: "1", Intent: db.IntentDating})
	requireReason(t, err, codes.InvalidArgument, "self_target")

	_, err = f.svc.Swipe(ctx, &campus.SwipeRequest{ActorUserID: "1", TargetUserID: "2", Intent: "superlike"})
	requireReason(t, err, codes.InvalidArgument, "invalid_request")

	_, err = f.svc.Swipe(ctx, &campus.SwipeRequest{ActorUserID: "1", TargetUserID: "404", Intent: db.IntentFriend})
	requireReason(t, err, codes.InvalidArgument, "target_not_found")

	var n int64
	require.NoError(t, f.gdb.Model(&db.SwipeIntent{}).Count(&n).Error)
	assert.Zero(t, n)
}

// TestSwipe_ActorMustBeMatchable keeps incomplete and unknown actors out of the ledger,
// so the other side liking back can never produce a match.
func TestSwipe_ActorMustBeMatchable(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	_, err := f.svc.Swipe(ctx, &campus.SwipeRequest{ActorUserID: "4", TargetUserID: "1", Intent: db.IntentDating})
	requireReason(t, err, codes.FailedPrecondition, "profile_incomplete")

	_, err = f.svc.Swipe(ctx, &campus.SwipeRequest{ActorUserID: "999", TargetUserID: "1", Intent: db.IntentFriend})
	requireReason(t, err, codes.InvalidArgument, "actor_not_found")

	resp, err := f.svc.Swipe(ctx, &campus.SwipeRequest{ActorUserID: "1", TargetUserID: "4", Intent: db.IntentDating})
	require.NoError(t, err)
	assert.False(t, resp.Matched)

	var swipes, matches int64
	require.NoError(t, f.gdb.Model(&db.SwipeIntent{}).Count(&swipes).Error)
	require.NoError(t, f.gdb.Model(&db.Match{}).Count(&matches).Error)
	assert.Equal(t, int64(1), swipes)
	assert.Zero(t, matches)
	assert.Equal(t, int64(1), f.countNotifications(t, notify.TypeForIntent(db.IntentDating)), "only the like toward user 4")
}

func TestMutualMatchesAndMyLikes(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	swipe := func(actor, target, intent string) {
		_, err := f.svc.Swipe(ctx, &campus.SwipeRequest{ActorUserID: actor, TargetUserID: target, Intent: intent})
		require.NoError(t, err)
	}
	swipe("1", "2", db.IntentDating)
	f.clock.Advance(time.Minute)
	swipe("1", "3", db.IntentFriend)
	swipe("2", "1", db.IntentDating)

	matches, err := f.svc.ListMutualMatches(ctx, &campus.ListMutualMatchesRequest{UserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, 1, matches.Total)
	require.Len(t, matches.Items, 1)
	assert.Equal(t, "2", matches.Items[0].ID)
	assert.Equal(t, db.IntentDating, matches.Items[0].Intent)
	assert.True(t, matches.Items[0].MatchedAt.Equal(f.clock.Now()))

	likes, err := f.svc.ListMyLikes(ctx, &campus.ListMyLikesRequest{UserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, 2, likes.Total)
	require.Len(t, likes.Items, 2)
	assert.Equal(t, "3", likes.Items[0].ID)
	assert.Equal(t, db.IntentFriend, likes.Items[0].MyIntent)
	assert.False(t, likes.Items[0].Matched)
	assert.Equal(t, "2", likes.Items[1].ID)
	assert.True(t, likes.Items[1].Matched)

	likes, err = f.svc.ListMyLikes(ctx, &campus.ListMyLikesRequest{UserID: "1", Intent: db.IntentFriend})
	require.NoError(t, err)
	require.Len(t, likes.Items, 1)
	assert.Equal(t, "3", likes.Items[0].ID)

	_, err = f.svc.ListMyLikes(ctx, &campus.ListMyLikesRequest{UserID: "1", Intent: db.IntentIgnored})
	requireReason(t, err, codes.InvalidArgument, "invalid_request")

	_, err = f.svc.ListMutualMatches(ctx, &campus.ListMutualMatchesRequest{UserID: "4"})
	requireReason(t, err, codes.FailedPrecondition, "profile_incomplete")
}

// TestLikedYouLists checks that ignored likers drop out and liked-back likers are not "new".
func TestLikedYouLists(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	swipe := func(actor, target, intent string) {
		_, err := f.svc.Swipe(ctx, &campus.SwipeRequest{ActorUserID: actor, TargetUserID: target, Intent: intent})
		require.NoError(t, err)
	}
	swipe("2", "1", db.IntentDating)
	f.clock.Advance(time.Second)
	swipe("3", "1", db.IntentStudyBuddy)
	f.clock.Advance(time.Second)
	// user 4 liked before their profile went incomplete
	require.NoError(t, repository.NewSwipeRepository(f.gdb).UpsertIntent(ctx, 4, 1, db.IntentFriend, f.clock.Now()))
	swipe("1", "4", db.IntentIgnored)
	swipe("1", "2", db.IntentDating)

	all, err := f.svc.ListLikedYou(ctx, &campus.ListLikedYouRequest{RecipientUserID: "1"})
	require.NoError(t, err)
	require.Len(t, all.Likers, 2)
	assert.Equal(t, "3", all.Likers[0].ActorID)
	assert.Equal(t, db.IntentStudyBuddy, all.Likers[0].Intent)
	assert.Equal(t, "2", all.Likers[1].ActorID)
	assert.Nil(t, all.NextPaginationToken)

	fresh, err := f.svc.ListNewLikedYou(ctx, &campus.ListLikedYouRequest{RecipientUserID: "1"})
	require.NoError(t, err)
	require.Len(t, fresh.Likers, 1)
	assert.Equal(t, "3", fresh.Likers[0].ActorID)

	count, err := f.svc.CountLikedYou(ctx, &campus.CountLikedYouRequest{RecipientUserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count.Count)
	assert.True(t, f.mr.Exists("likes:count:1"))

	bad := "not-a-token"
	_, err = f.svc.ListLikedYou(ctx, &campus.ListLikedYouRequest{RecipientUserID: "1", PaginationToken: &bad})
	requireReason(t, err, codes.InvalidArgument, "invalid_pagination_token")
}

func TestProximityFlow(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	resp, err := f.svc.GetProximityMatch(ctx, &campus.ProximityRequest{UserID: "1"})
	require.NoError(t, err)
	require.NotNil(t, resp.Partner)
	assert.Equal(t, "2", resp.Partner.ID)
	assert.Nil(t, resp.LocationPercentage, "no location yet")
	assert.Nil(t, resp.DistanceMeters)
	assert.False(t, resp.IsProximityMatch)
	require.NotNil(t, resp.Debug)
	assert.Equal(t, "heuristic", resp.Debug.Source)

	for _, id := range []string{"1", "2"} {
		u, err := f.svc.UpdateLocation(ctx, &campus.UpdateLocationRequest{
			UserID:    id,
			Latitude:  testutil.Float(14.0),
			Longitude: testutil.Float(121.0),
		})
		require.NoError(t, err)
		assert.True(t, u.Updated)
	}
	assert.NotEmpty(t, f.rec.Named(events.NameMatchProximityUpdated))

	resp, err = f.svc.GetProximityMatch(ctx, &campus.ProximityRequest{UserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "existing", resp.Debug.Source)
	assert.Equal(t, 100, *resp.LocationPercentage)
	assert.Equal(t, 100, *resp.MatchProximityPercentage)
	assert.True(t, resp.IsProximityMatch)
	assert.True(t, resp.IsNearby)

	radar, err := f.svc.GetRadar(ctx, &campus.ProximityRequest{UserID: "1"})
	require.NoError(t, err)
	require.Len(t, radar.Nearby, 1)
	assert.Equal(t, uint64(2), radar.Nearby[0].UserID)

	reset, err := f.svc.ResetProximityMatch(ctx, &campus.ProximityRequest{UserID: "1"})
	require.NoError(t, err)
	assert.True(t, reset.Reset)
	var n int64
	require.NoError(t, f.gdb.Model(&db.ProximityAssignment{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestProximity_NoCandidatesIsNotAnError(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	resp, err := f.svc.GetProximityMatch(ctx, &campus.ProximityRequest{UserID: "3"})
	require.NoError(t, err)
	assert.Nil(t, resp.Partner)
	assert.Equal(t, "no_candidates", resp.Reason)
}

func TestUpdateLocation_Validation(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	_, err := f.svc.UpdateLocation(ctx, &campus.UpdateLocationRequest{
		UserID:    "1",
		Latitude:  testutil.Float(95),
		Longitude: testutil.Float(121),
	})
	requireReason(t, err, codes.InvalidArgument, "invalid_request")

	_, err = f.svc.UpdateLocation(ctx, &campus.UpdateLocationRequest{UserID: "1", Latitude: testutil.Float(14)})
	requireReason(t, err, codes.InvalidArgument, "invalid_request")

	_, err = f.svc.UpdateLocation(ctx, &campus.UpdateLocationRequest{
		UserID:    "404",
		Latitude:  testutil.Float(14),
		Longitude: testutil.Float(121),
	})
	assert.Equal(t, codes.NotFound, status.Code(err))
}
