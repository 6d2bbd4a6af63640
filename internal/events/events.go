// Package events publishes settings lifecycle notifications on the message bus.
package events

import (
	"context"
	"time"
)

// Event topic constants
const (
	TopicSettingsSaved      = "trellis.settings.saved"
	TopicSettingsSaveFailed = "trellis.settings.save_failed"

	// TopicAll matches every settings topic.
	TopicAll = "trellis.settings.>"
)

// SettingsSaved is emitted by the server after a document was stored.
type SettingsSaved struct {
	UserID  string    `json:"user_id"`
	Tiles   int       `json:"tiles"`
	SavedAt time.Time `json:"saved_at"`
}

// SettingsSaveFailed is emitted by a client agent when a background save
// was rejected. The optimistic local state is kept.
type SettingsSaveFailed struct {
	Tiles    int       `json:"tiles"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Message is one payload received from the bus.
type Message struct {
	Topic string
	Data  []byte
}
