// Package editor buffers free-text edits of a Note tile and commits them
// after a quiet period.
package editor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alfredjeanlab/trellis/internal/model"
)

// DefaultDelay is the quiet period after the last keystroke before an edit
// is committed.
const DefaultDelay = 1000 * time.Millisecond

// Patcher applies a tile patch. *agent.Agent satisfies it.
type Patcher interface {
	PatchTile(id uuid.UUID, data model.TileData) (bool, error)
}

// NoteEditor debounces edits to one Note tile. Each Input restarts the
// timer; when it fires the latest text is committed with one PatchTile.
//
// Close drops an edit that has not been committed yet. Callers that must not
// lose it call Flush first.
type NoteEditor struct {
	id      uuid.UUID
	patcher Patcher
	delay   time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	text    string
	timer   *time.Timer
	gen     uint64 // bumped on every Input; a firing timer must match it
	pending bool
	closed  bool
}

// Option configures a NoteEditor.
type Option func(*NoteEditor)

// WithDelay overrides DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(e *NoteEditor) { e.delay = d }
}

// WithLogger sets the logger used for failed commits.
func WithLogger(l *slog.Logger) Option {
	return func(e *NoteEditor) { e.logger = l }
}

// New returns an editor for the Note tile id whose current text is initial.
func New(id uuid.UUID, initial string, patcher Patcher, opts ...Option) *NoteEditor {
	e := &NoteEditor{
		id:      id,
		patcher: patcher,
		delay:   DefaultDelay,
		logger:  slog.Default(),
		text:    initial,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Input replaces the buffered text and restarts the quiet period.
func (e *NoteEditor) Input(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.text = text
	e.pending = true
	e.gen++
	gen := e.gen
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.delay, func() { e.fire(gen) })
}

// Text returns the buffered text.
func (e *NoteEditor) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

// Pending reports whether an edit is waiting for its quiet period to end.
func (e *NoteEditor) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// Flush commits a pending edit immediately.
func (e *NoteEditor) Flush() error {
	e.mu.Lock()
	if !e.pending || e.closed {
		e.mu.Unlock()
		return nil
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	e.pending = false
	text := e.text
	e.mu.Unlock()
	return e.commit(text)
}

// Close cancels the timer. A pending edit is discarded.
func (e *NoteEditor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
	}
	if e.pending {
		e.logger.Warn("note editor closed with an uncommitted edit", "tile", e.id)
	}
	e.pending = false
}

func (e *NoteEditor) fire(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.gen || !e.pending {
		e.mu.Unlock()
		return
	}
	e.pending = false
	text := e.text
	e.mu.Unlock()
	if err := e.commit(text); err != nil {
		e.logger.Warn("note commit failed", "tile", e.id, "err", err)
	}
}

func (e *NoteEditor) commit(text string) error {
	found, err := e.patcher.PatchTile(e.id, model.Note{Text: text})
	if err != nil {
		return err
	}
	if !found {
		e.logger.Warn("note tile no longer exists", "tile", e.id)
	}
	return nil
}
