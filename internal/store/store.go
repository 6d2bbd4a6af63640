// Package store defines persistence for per-user settings documents.
package store

import (
	"context"
	"encoding/json"
	"time"
)

// Document is one user's stored settings document.
type Document struct {
	UserID    string
	Value     json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SettingsStore persists settings documents keyed by user id.
// Get and Delete return sql.ErrNoRows when the user has no document.
type SettingsStore interface {
	GetSettings(ctx context.Context, userID string) (*Document, error)
	// PutSettings inserts or replaces the document and fills in its timestamps.
	PutSettings(ctx context.Context, doc *Document) error
	ListSettings(ctx context.Context) ([]*Document, error)
	DeleteSettings(ctx context.Context, userID string) error

	Close() error
}
