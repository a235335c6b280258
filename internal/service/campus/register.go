package campus

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/server"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "campusmatch.v1.MatchService"

// MatchServer is the server API of campusmatch.v1.MatchService.
type MatchServer interface {
	Browse(context.Context, *BrowseRequest) (*BrowseResponse, error)
	Discover(context.Context, *DiscoverRequest) (*DiscoverResponse, error)
	Swipe(context.Context, *SwipeRequest) (*SwipeResponse, error)
	AreMatched(context.Context, *AreMatchedRequest) (*AreMatchedResponse, error)
	ListMutualMatches(context.Context, *ListMutualMatchesRequest) (*ListMutualMatchesResponse, error)
	ListMyLikes(context.Context, *ListMyLikesRequest) (*ListMyLikesResponse, error)
	ListLikedYou(context.Context, *ListLikedYouRequest) (*ListLikedYouResponse, error)
	ListNewLikedYou(context.Context, *ListLikedYouRequest) (*ListLikedYouResponse, error)
	CountLikedYou(context.Context, *CountLikedYouRequest) (*CountLikedYouResponse, error)
	GetProximityMatch(context.Context, *ProximityRequest) (*ProximityResponse, error)
	ResetProximityMatch(context.Context, *ProximityRequest) (*ResetProximityMatchResponse, error)
	UpdateLocation(context.Context, *UpdateLocationRequest) (*UpdateLocationResponse, error)
	GetRadar(context.Context, *ProximityRequest) (*RadarResponse, error)
}

var _ MatchServer = (*Service)(nil)

// ServiceDesc describes MatchService for grpc.Server.RegisterService. Messages are plain
// structs carried by server.JSONCodec.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchServer)(nil),
	Methods: []grpc.MethodDesc{
		server.Unary(ServiceName, "Browse", MatchServer.Browse),
		server.Unary(ServiceName, "Discover", MatchServer.Discover),
		server.Unary(ServiceName, "Swipe", MatchServer.Swipe),
		server.Unary(ServiceName, "AreMatched", MatchServer.AreMatched),
		server.Unary(ServiceName, "ListMutualMatches", MatchServer.ListMutualMatches),
		server.Unary(ServiceName, "ListMyLikes", MatchServer.ListMyLikes),
		server.Unary(ServiceName, "ListLikedYou", MatchServer.ListLikedYou),
		server.Unary(ServiceName, "ListNewLikedYou", MatchServer.ListNewLikedYou),
		server.Unary(ServiceName, "CountLikedYou", MatchServer.CountLikedYou),
		server.Unary(ServiceName, "GetProximityMatch", MatchServer.GetProximityMatch),
		server.Unary(ServiceName, "ResetProximityMatch", MatchServer.ResetProximityMatch),
		server.Unary(ServiceName, "UpdateLocation", MatchServer.UpdateLocation),
		server.Unary(ServiceName, "GetRadar", MatchServer.GetRadar),
	},
	Streams: []grpc.StreamDesc{},
}

// Registrar ties the MatchService into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the MatchService
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the MatchService implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&ServiceDesc, NewService(r.appCtx))
}
