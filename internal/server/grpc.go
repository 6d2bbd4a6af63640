package server

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/alfredjeanlab/trellis/internal/rpc"
)

// Compile-time check that SettingsServer serves the gRPC service.
var _ rpc.SettingsServer = (*SettingsServer)(nil)

// NewGRPCServer creates a gRPC server with standard interceptors,
// registers the SettingsService, reflection, and returns the server ready to serve.
func NewGRPCServer(settings *SettingsServer) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
			AuthInterceptor(settings.sessions),
		),
	)

	rpc.RegisterSettingsServer(srv, settings)
	reflection.Register(srv)

	return srv
}

// Load returns the caller's document.
func (s *SettingsServer) Load(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	userID, ok := userFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "not signed in")
	}
	s.track(ctx, "load", grpcUserAgent(ctx))
	doc, err := s.loadDocument(ctx, userID)
	if err != nil {
		slog.Error("load settings failed", "user_id", userID, "error", err)
		return nil, status.Error(codes.Internal, "failed to load settings")
	}
	return wrapperspb.Bytes(doc), nil
}

// Save replaces the caller's document.
func (s *SettingsServer) Save(ctx context.Context, req *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	userID, ok := userFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "not signed in")
	}
	s.track(ctx, "save", grpcUserAgent(ctx))
	if err := s.saveDocument(ctx, userID, req.GetValue()); err != nil {
		var ie inputError
		if errors.As(err, &ie) {
			return nil, status.Error(codes.InvalidArgument, ie.Error())
		}
		slog.Error("save settings failed", "user_id", userID, "error", err)
		return nil, status.Error(codes.Internal, "failed to save settings")
	}
	return &emptypb.Empty{}, nil
}

// Health reports "ok".
func (s *SettingsServer) Health(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("ok"), nil
}

func grpcUserAgent(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if ua := md.Get("user-agent"); len(ua) > 0 {
		return ua[0]
	}
	return ""
}
