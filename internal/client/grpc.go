package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/alfredjeanlab/trellis/internal/model"
	"github.com/alfredjeanlab/trellis/internal/rpc"
)

// GRPCClient implements SettingsClient using the gRPC transport.
type GRPCClient struct {
	conn     *grpc.ClientConn
	client   *rpc.SettingsClient
	sessions SessionSource
}

// NewGRPCClient connects to the given gRPC address and returns a client.
func NewGRPCClient(addr string, sessions SessionSource, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent(UserAgent),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{
		conn:     conn,
		client:   rpc.NewSettingsClient(conn),
		sessions: sessions,
	}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) Load(ctx context.Context) (model.Config, error) {
	ctx, err := c.authorize(ctx)
	if err != nil {
		return model.Config{}, err
	}
	resp, err := c.client.Load(ctx, &emptypb.Empty{})
	if err != nil {
		return model.Config{}, mapRPCError(ctx, "load", err)
	}
	cfg, err := model.Parse(resp.GetValue())
	if err != nil {
		return model.Config{}, &NetworkError{Op: "load", Err: fmt.Errorf("decoding response: %w", err)}
	}
	return cfg, nil
}

func (c *GRPCClient) Save(ctx context.Context, cfg model.Config) error {
	data, err := model.Serialize(cfg)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}
	ctx, err = c.authorize(ctx)
	if err != nil {
		return err
	}
	if _, err := c.client.Save(ctx, wrapperspb.Bytes(data)); err != nil {
		return mapRPCError(ctx, "save", err)
	}
	return nil
}

func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	resp, err := c.client.Health(ctx, &emptypb.Empty{})
	if err != nil {
		return "", mapRPCError(ctx, "health", err)
	}
	return resp.GetValue(), nil
}

func (c *GRPCClient) authorize(ctx context.Context) (context.Context, error) {
	sess, err := currentSession(ctx, c.sessions)
	if err != nil {
		return nil, err
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+sess.Token), nil
}

// mapRPCError folds a gRPC status into the client error kinds. A call ended
// by the caller's own context returns that context's error.
func mapRPCError(ctx context.Context, op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return &NetworkError{Op: op, Err: err}
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return ErrNotAuthenticated
	case codes.Canceled, codes.DeadlineExceeded:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return &NetworkError{Op: op, Err: err}
}
