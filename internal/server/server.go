package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/trellis/internal/auth"
	"github.com/alfredjeanlab/trellis/internal/events"
	"github.com/alfredjeanlab/trellis/internal/model"
	"github.com/alfredjeanlab/trellis/internal/presence"
	"github.com/alfredjeanlab/trellis/internal/store"
)

// SettingsServer serves each signed-in user's settings document over HTTP
// and gRPC.
type SettingsServer struct {
	store     store.SettingsStore
	publisher events.Publisher
	sessions  *auth.Sessions
	presence  *presence.Tracker
	logger    *slog.Logger
}

// NewSettingsServer returns a server backed by the given store, publisher
// and session authority.
func NewSettingsServer(s store.SettingsStore, p events.Publisher, sessions *auth.Sessions) *SettingsServer {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	return &SettingsServer{
		store:     s,
		publisher: p,
		sessions:  sessions,
		presence:  presence.New(),
		logger:    slog.Default(),
	}
}

// Presence returns the tracker of recently active sessions.
func (s *SettingsServer) Presence() *presence.Tracker { return s.presence }

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// loadDocument returns the user's document, or the default document when
// nothing was saved yet.
func (s *SettingsServer) loadDocument(ctx context.Context, userID string) ([]byte, error) {
	doc, err := s.store.GetSettings(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Serialize(model.Default())
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return doc.Value, nil
}

// saveDocument stores body as the user's document, replacing the previous
// one. The document is opaque to the server; it only has to be JSON.
func (s *SettingsServer) saveDocument(ctx context.Context, userID string, body []byte) error {
	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		return inputError("body is not valid JSON: " + err.Error())
	}

	doc := &store.Document{UserID: userID, Value: compact.Bytes()}
	if err := s.store.PutSettings(ctx, doc); err != nil {
		return fmt.Errorf("put settings: %w", err)
	}

	ev := events.SettingsSaved{UserID: userID, Tiles: countTiles(doc.Value), SavedAt: doc.UpdatedAt}
	if ev.SavedAt.IsZero() {
		ev.SavedAt = time.Now().UTC()
	}
	if err := s.publisher.Publish(ctx, events.TopicSettingsSaved, ev); err != nil {
		s.logger.Warn("failed to publish event", "topic", events.TopicSettingsSaved, "user_id", userID, "error", err)
	}
	return nil
}

// countTiles returns the length of the document's tiles array, or 0 when it
// has none.
func countTiles(doc []byte) int {
	var shape struct {
		Tiles []json.RawMessage `json:"tiles"`
	}
	if err := json.Unmarshal(doc, &shape); err != nil {
		return 0
	}
	return len(shape.Tiles)
}

// userFromContext returns the signed-in user placed in ctx by the session
// middleware or interceptor.
func userFromContext(ctx context.Context) (string, bool) {
	sess, ok := auth.FromContext(ctx)
	if !ok || sess.UserID == "" {
		return "", false
	}
	return sess.UserID, true
}

// track records a settings call by the session in ctx.
func (s *SettingsServer) track(ctx context.Context, op, client string) {
	sess, ok := auth.FromContext(ctx)
	if !ok {
		return
	}
	s.presence.Record(presence.Activity{
		UserID:    sess.UserID,
		SessionID: sess.ID,
		Client:    client,
		Op:        op,
	})
}
