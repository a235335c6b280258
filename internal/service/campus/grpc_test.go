package campus_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/server"
	"github.com/oggyb/campus-match/internal/service/campus"
	"github.com/oggyb/campus-match/internal/testutil"
)

// dial serves the registrar over an in-memory listener and returns a JSON-codec client.
func dial(t *testing.T, f *fixture) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer(testutil.Logger(), campus.NewRegistrar(f.appCtx))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(server.JSONCodec{})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func method(name string) string { return "/" + campus.ServiceName + "/" + name }

func TestGRPC_SwipeRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)
	conn := dial(t, f)

	var out campus.SwipeResponse
	require.NoError(t, conn.Invoke(ctx, method("Swipe"),
		&campus.SwipeRequest{ActorUserID: "1", TargetUserID: "2", Intent: "dating"}, &out))
	assert.False(t, out.Matched)

	require.NoError(t, conn.Invoke(ctx, method("Swipe"),
		&campus.SwipeRequest{ActorUserID: "2", TargetUserID: "1", Intent: "study_buddy"}, &out))
	assert.True(t, out.Matched)
	require.NotNil(t, out.OtherUser)
	assert.Equal(t, uint64(1), out.OtherUser.ID)

	var matched campus.AreMatchedResponse
	require.NoError(t, conn.Invoke(ctx, method("AreMatched"),
		&campus.AreMatchedRequest{UserID: "2", OtherUserID: "1"}, &matched))
	assert.True(t, matched.Matched)

	var matches map[string]any
	require.NoError(t, conn.Invoke(ctx, method("ListMutualMatches"),
		&campus.ListMutualMatchesRequest{UserID: "1"}, &matches))
	items := matches["items"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.Equal(t, "2", first["id"])
	assert.Equal(t, "study_buddy", first["intent"])
	assert.NotEmpty(t, first["matched_at"])
}

func TestGRPC_RejectionReasonSurvivesTheWire(t *testing.T) {
	f := setupService(t)
	conn := dial(t, f)

	var out campus.SwipeResponse
	err := conn.Invoke(context.Background(), method("Swipe"),
		&campus.SwipeRequest{ActorUserID: "1", TargetUserID: "1", Intent: "friend"}, &out)
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, "self_target", svcErr.Reason(err))
}

func TestGRPC_BrowseJSONShape(t *testing.T) {
	f := setupService(t)
	conn := dial(t, f)

	var out map[string]any
	require.NoError(t, conn.Invoke(context.Background(), method("Browse"),
		&campus.BrowseRequest{UserID: "1"}, &out))
	assert.EqualValues(t, 2, out["total"])
	assert.EqualValues(t, 1, out["current_page"])
	items := out["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "2", first["id"])
	assert.EqualValues(t, 79, first["compatibility_score"])
}

func TestGRPC_UnknownMethod(t *testing.T) {
	f := setupService(t)
	conn := dial(t, f)

	var out map[string]any
	err := conn.Invoke(context.Background(), method("Teleport"), map[string]any{}, &out)
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}
