// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const unlockServiceName = "sponsorunlock.v1.UnlockService"

// UnlockServiceServer is the server API of the unlock service. Requests and
// responses are plain structs so clients only need the well-known types.
type UnlockServiceServer interface {
	Begin(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Advance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Resolve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SchedulePromotion(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv UnlockServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	fullMethod := "/" + unlockServiceName + "/" + method

	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(UnlockServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(UnlockServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// UnlockServiceDesc describes the unlock service for grpc.Server.
var UnlockServiceDesc = grpc.ServiceDesc{
	ServiceName: unlockServiceName,
	HandlerType: (*UnlockServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Begin",
			Handler: unaryHandler("Begin", func(srv UnlockServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.Begin(ctx, in)
			}),
		},
		{
			MethodName: "Advance",
			Handler: unaryHandler("Advance", func(srv UnlockServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.Advance(ctx, in)
			}),
		},
		{
			MethodName: "Resolve",
			Handler: unaryHandler("Resolve", func(srv UnlockServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.Resolve(ctx, in)
			}),
		},
		{
			MethodName: "SchedulePromotion",
			Handler: unaryHandler("SchedulePromotion", func(srv UnlockServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.SchedulePromotion(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pkg/handler/service.go",
}

// RegisterUnlockServiceServer registers srv on s.
func RegisterUnlockServiceServer(s grpc.ServiceRegistrar, srv UnlockServiceServer) {
	s.RegisterService(&UnlockServiceDesc, srv)
}

// UnlockServiceClient calls the unlock service.
type UnlockServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewUnlockServiceClient creates a client on cc.
func NewUnlockServiceClient(cc grpc.ClientConnInterface) *UnlockServiceClient {
	return &UnlockServiceClient{cc: cc}
}

func (c *UnlockServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+unlockServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *UnlockServiceClient) Begin(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Begin", in, opts...)
}

func (c *UnlockServiceClient) Advance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Advance", in, opts...)
}

func (c *UnlockServiceClient) Resolve(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Resolve", in, opts...)
}

func (c *UnlockServiceClient) SchedulePromotion(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "SchedulePromotion", in, opts...)
}
