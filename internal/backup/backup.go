// Package backup periodically exports every stored settings document as JSONL
// and hands the snapshot to one or more destinations.
package backup

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/trellis/internal/store"
)

// Destination receives a complete JSONL snapshot.
type Destination interface {
	Name() string
	Write(ctx context.Context, data []byte) error
}

// Scheduler exports the settings store to its destinations on an interval.
type Scheduler struct {
	store        store.SettingsStore
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler. A nil logger uses slog.Default().
func NewScheduler(s store.SettingsStore, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start runs one backup right away, then one per interval until Stop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	_ = s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}

// RunOnce exports the store and writes the snapshot to every destination.
// A failing destination does not stop the others; the first error is returned.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	var buf bytes.Buffer
	n, err := ExportJSONL(ctx, s.store, &buf)
	if err != nil {
		s.logger.Error("backup export failed", "err", err)
		return err
	}
	data := buf.Bytes()

	var first error
	for _, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			s.logger.Error("backup destination write failed", "destination", dest.Name(), "err", err)
			if first == nil {
				first = err
			}
		}
	}

	s.logger.Info("backup completed",
		"documents", n,
		"destinations", len(s.destinations),
		"bytes", len(data),
		"duration", time.Since(start))
	return first
}
