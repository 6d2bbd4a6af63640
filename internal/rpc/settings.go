// Package rpc describes the trellis.v1.SettingsService gRPC service.
//
// The settings document travels as its canonical JSON text wrapped in a
// BytesValue, so the service needs no message types of its own.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "trellis.v1.SettingsService"

// Full method names.
const (
	LoadMethod   = "/" + ServiceName + "/Load"
	SaveMethod   = "/" + ServiceName + "/Save"
	HealthMethod = "/" + ServiceName + "/Health"
)

// SettingsServer is implemented by the server side of the service.
type SettingsServer interface {
	Load(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	Save(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	Health(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// RegisterSettingsServer registers srv on s.
func RegisterSettingsServer(s grpc.ServiceRegistrar, srv SettingsServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc is the grpc.ServiceDesc for SettingsService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SettingsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Load", Handler: loadHandler},
		{MethodName: "Save", Handler: saveHandler},
		{MethodName: "Health", Handler: healthHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "trellis/v1/settings.proto",
}

func loadHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SettingsServer).Load(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LoadMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SettingsServer).Load(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func saveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SettingsServer).Save(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SaveMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SettingsServer).Save(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func healthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SettingsServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HealthMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SettingsServer).Health(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// SettingsClient is the client side of the service.
type SettingsClient struct {
	cc grpc.ClientConnInterface
}

// NewSettingsClient returns a client issuing calls over cc.
func NewSettingsClient(cc grpc.ClientConnInterface) *SettingsClient {
	return &SettingsClient{cc: cc}
}

func (c *SettingsClient) Load(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, LoadMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SettingsClient) Save(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, SaveMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SettingsClient) Health(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, HealthMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
