// Package rewardrpc defines the trackreward.RewardService gRPC contract.
// Messages travel as google.protobuf.Struct so no generated code is needed.
package rewardrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region names
const ServiceName = "trackreward.RewardService"

const (
	EvaluateMethod       = "/trackreward.RewardService/Evaluate"
	StartEpisodeMethod   = "/trackreward.RewardService/StartEpisode"
	EpisodeSummaryMethod = "/trackreward.RewardService/EpisodeSummary"
)

// #endregion names

// #region client
// RewardServiceClient is the client API for RewardService.
type RewardServiceClient interface {
	Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	StartEpisode(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	EpisodeSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type rewardServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRewardServiceClient binds the client API to a connection.
func NewRewardServiceClient(cc grpc.ClientConnInterface) RewardServiceClient {
	return &rewardServiceClient{cc: cc}
}

func (c *rewardServiceClient) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, EvaluateMethod, in, opts)
}

func (c *rewardServiceClient) StartEpisode(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, StartEpisodeMethod, in, opts)
}

func (c *rewardServiceClient) EpisodeSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, EpisodeSummaryMethod, in, opts)
}

func (c *rewardServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion client

// #region server
// RewardServiceServer is the server API for RewardService.
type RewardServiceServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartEpisode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EpisodeSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedRewardServiceServer answers every method with codes.Unimplemented.
type UnimplementedRewardServiceServer struct{}

func (UnimplementedRewardServiceServer) Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Evaluate not implemented")
}

func (UnimplementedRewardServiceServer) StartEpisode(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method StartEpisode not implemented")
}

func (UnimplementedRewardServiceServer) EpisodeSummary(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method EpisodeSummary not implemented")
}

// RegisterRewardServiceServer attaches srv to a gRPC server.
func RegisterRewardServiceServer(s grpc.ServiceRegistrar, srv RewardServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type unaryCall func(RewardServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RewardServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RewardServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes RewardService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RewardServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Evaluate",
			Handler:    unaryHandler(EvaluateMethod, RewardServiceServer.Evaluate),
		},
		{
			MethodName: "StartEpisode",
			Handler:    unaryHandler(StartEpisodeMethod, RewardServiceServer.StartEpisode),
		},
		{
			MethodName: "EpisodeSummary",
			Handler:    unaryHandler(EpisodeSummaryMethod, RewardServiceServer.EpisodeSummary),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "trackreward/reward.proto",
}

// #endregion server
