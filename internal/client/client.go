// Package client provides a transport-agnostic interface for the remote copy
// of a user's settings document, with HTTP/JSON and gRPC implementations.
package client

import (
	"context"
	"strings"

	"github.com/alfredjeanlab/trellis/internal/model"
)

// UserAgent identifies trellis clients to the server's device list.
const UserAgent = "trellis-cli"

// SettingsClient loads and saves the signed-in user's settings document.
// Save replaces the whole document.
type SettingsClient interface {
	Load(ctx context.Context) (model.Config, error)
	Save(ctx context.Context, cfg model.Config) error
	Close() error
}

// Session is the credential presented to the server.
type Session struct {
	Token string
}

// SessionSource yields the current session. It returns an error when the
// user is not signed in.
type SessionSource interface {
	CurrentSession(ctx context.Context) (Session, error)
}

// StaticSession is a SessionSource holding a fixed token. An empty token
// means signed out.
type StaticSession string

func (s StaticSession) CurrentSession(context.Context) (Session, error) {
	tok := strings.TrimSpace(string(s))
	if tok == "" {
		return Session{}, ErrNotAuthenticated
	}
	return Session{Token: tok}, nil
}

// currentSession resolves a session, folding every failure into ErrNotAuthenticated.
func currentSession(ctx context.Context, src SessionSource) (Session, error) {
	if src == nil {
		return Session{}, ErrNotAuthenticated
	}
	sess, err := src.CurrentSession(ctx)
	if err != nil || sess.Token == "" {
		return Session{}, ErrNotAuthenticated
	}
	return sess, nil
}
