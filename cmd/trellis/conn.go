package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alfredjeanlab/trellis/internal/agent"
	"github.com/alfredjeanlab/trellis/internal/cache"
	"github.com/alfredjeanlab/trellis/internal/client"
	"github.com/alfredjeanlab/trellis/internal/events"
)

// newSettingsClient connects to the server over the selected transport.
func newSettingsClient() (client.SettingsClient, error) {
	sessions := client.StaticSession(token)
	switch transport {
	case "http":
		return client.NewHTTPClient(httpURL, sessions), nil
	case "grpc":
		c, err := client.NewGRPCClient(serverAddr, sessions)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to server: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown transport %q (must be http or grpc)", transport)
	}
}

// withAgent runs fn against an agent that has loaded the document, then
// waits for its saves to finish.
//
// When the server cannot be reached the agent keeps the locally cached
// document, so read-only commands still work offline; a save made in that
// state is reported by the final flush.
func withAgent(ctx context.Context, fn func(context.Context, *agent.Agent) error) error {
	remote, err := newSettingsClient()
	if err != nil {
		return err
	}
	defer remote.Close()

	if err := os.MkdirAll(filepath.Dir(cacheFile), 0o700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	storage, err := cache.NewSQLiteStorage(cacheFile)
	if err != nil {
		return err
	}
	defer storage.Close()

	publisher := agentPublisher()
	defer publisher.Close()

	a := agent.New(agent.Options{
		Remote:    remote,
		Cache:     cache.New(storage, logger),
		Publisher: publisher,
		Logger:    logger,
	})
	defer a.Close()

	if err := a.Load(ctx); err != nil {
		switch {
		case client.IsAuthError(err):
			return errors.New("not signed in: pass --token, set TRELLIS_TOKEN or add one to the active remote")
		case client.IsNetworkError(err):
			logger.Warn("server unreachable, using cached settings", "err", err)
		default:
			return err
		}
	}

	if err := fn(ctx, a); err != nil {
		return err
	}
	if err := a.Flush(ctx); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// agentPublisher publishes save failures to NATS when a NATS URL is
// configured. Without one, or when NATS is down, events are dropped.
func agentPublisher() events.Publisher {
	url := defaultNATSURL()
	if url == "" {
		return &events.NoopPublisher{}
	}
	pub, err := events.NewNATSPublisher(url)
	if err != nil {
		logger.Warn("events disabled", "nats_url", url, "err", err)
		return &events.NoopPublisher{}
	}
	return pub
}
