// Package cache keeps a best-effort local copy of the settings document so a
// first paint never waits on the network. Failures here are logged and
// swallowed: the remote copy is authoritative.
package cache

import (
	"errors"
	"log/slog"

	"github.com/alfredjeanlab/trellis/internal/model"
)

// Key is the storage key holding the canonical serialization of the document.
const Key = "trellis.settings"

// Cache reads and writes the settings document through a Storage.
type Cache struct {
	storage Storage
	logger  *slog.Logger
}

// New returns a cache over storage. A nil logger uses slog.Default().
func New(storage Storage, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{storage: storage, logger: logger}
}

// Read returns the cached document, or model.Default() when the key is
// missing or its value does not parse.
func (c *Cache) Read() model.Config {
	text, err := c.storage.Get(Key)
	if errors.Is(err, ErrNotFound) {
		return model.Default()
	}
	if err != nil {
		c.logger.Warn("local cache read failed", "key", Key, "err", err)
		return model.Default()
	}

	cfg, err := model.Parse([]byte(text))
	if err != nil {
		c.logger.Warn("local cache holds an unreadable document", "key", Key, "err", err)
		return model.Default()
	}
	return cfg
}

// Write stores cfg. Errors are logged, never returned.
func (c *Cache) Write(cfg model.Config) {
	data, err := model.Serialize(cfg)
	if err != nil {
		c.logger.Warn("local cache serialize failed", "key", Key, "err", err)
		return
	}
	if err := c.storage.Set(Key, string(data)); err != nil {
		c.logger.Warn("local cache write failed", "key", Key, "err", err)
	}
}
