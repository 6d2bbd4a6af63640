// Package agent owns the single in-memory copy of the settings document.
//
// An Agent runs one goroutine that applies every mutation in the order it was
// accepted. It keeps the local cache current on each change, issues remote
// saves one at a time in the background and fans every accepted state out to
// its subscribers. Remote calls are the only operations that run off the loop;
// their results are posted back to it.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alfredjeanlab/trellis/internal/cache"
	"github.com/alfredjeanlab/trellis/internal/client"
	"github.com/alfredjeanlab/trellis/internal/events"
	"github.com/alfredjeanlab/trellis/internal/model"
)

var (
	// ErrClosed is returned by every method once Close has been called.
	ErrClosed = errors.New("settings agent closed")

	// ErrSuperseded is returned by Load when a newer load made its result obsolete.
	ErrSuperseded = errors.New("load superseded by a newer load")
)

// Options configures an Agent.
type Options struct {
	Remote    client.SettingsClient
	Cache     *cache.Cache
	Publisher events.Publisher // optional; save failures are published here
	Logger    *slog.Logger     // optional; defaults to slog.Default()
}

type inflightLoad struct {
	cancel     context.CancelFunc
	superseded bool
}

// Agent is the settings synchronization engine. Create one with New and
// release it with Close.
type Agent struct {
	remote    client.SettingsClient
	cache     *cache.Cache
	publisher events.Publisher
	logger    *slog.Logger

	mailbox   chan func()
	done      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once

	// ctx is cancelled when the loop stops; background saves run under it.
	ctx    context.Context
	cancel context.CancelFunc

	// Everything below is owned by the loop goroutine.
	current model.Config
	known   bool

	subs    map[SubscriptionID]*subscriber
	nextSub SubscriptionID

	loadSeq    uint64
	appliedSeq uint64
	loads      map[uint64]*inflightLoad

	saving      bool
	pending     *model.Config
	lastSaveErr error
	idleWaiters []chan error
}

// New starts an Agent. Remote and Cache are required.
func New(opts Options) *Agent {
	if opts.Remote == nil {
		panic("agent: Options.Remote is required")
	}
	if opts.Cache == nil {
		panic("agent: Options.Cache is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &Agent{
		remote:    opts.Remote,
		cache:     opts.Cache,
		publisher: publisher,
		logger:    logger,
		mailbox:   make(chan func()),
		done:      make(chan struct{}),
		loopDone:  make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		subs:      make(map[SubscriptionID]*subscriber),
		loads:     make(map[uint64]*inflightLoad),
	}
	go a.loop()
	return a
}

func (a *Agent) loop() {
	defer close(a.loopDone)
	for {
		select {
		case fn := <-a.mailbox:
			fn()
		case <-a.done:
			a.shutdown()
			return
		}
	}
}

func (a *Agent) shutdown() {
	a.cancel()
	for seq, l := range a.loads {
		l.cancel()
		delete(a.loads, seq)
	}
	for id, s := range a.subs {
		s.close()
		delete(a.subs, id)
	}
	if a.pending != nil {
		a.logger.Warn("settings agent closed with an unsaved change", "tiles", len(a.pending.Tiles))
		a.pending = nil
	}
}

// do runs fn on the loop and waits for it to finish.
func (a *Agent) do(fn func()) error {
	ran := make(chan struct{})
	select {
	case a.mailbox <- func() { fn(); close(ran) }:
	case <-a.done:
		return ErrClosed
	}
	<-ran
	return nil
}

// post queues fn on the loop without waiting. It is dropped after Close.
func (a *Agent) post(fn func()) {
	select {
	case a.mailbox <- fn:
	case <-a.done:
	}
}

// Close stops the agent. In-flight loads are cancelled, pending broadcasts
// and a queued save are dropped. Call Flush first to wait for saves.
func (a *Agent) Close() {
	a.closeOnce.Do(func() { close(a.done) })
	<-a.loopDone
}

// Current returns a snapshot of the in-memory document. ok is false until
// the first load or save, and after Close.
func (a *Agent) Current() (cfg model.Config, ok bool) {
	_ = a.do(func() {
		cfg, ok = a.current.Clone(), a.known
	})
	return cfg, ok
}

// Load broadcasts the locally cached document, then fetches the remote one.
// A fetched document replaces the in-memory state only if no newer load has
// already been applied; otherwise ErrSuperseded is returned. Starting a load
// cancels every older load still in flight. A failed fetch leaves the state
// untouched and is reported only to this caller.
func (a *Agent) Load(ctx context.Context) error {
	var (
		seq     uint64
		loadCtx context.Context
		cancel  context.CancelFunc
	)
	err := a.do(func() {
		if !a.known {
			a.current, a.known = a.cache.Read(), true
		}
		a.broadcast(a.current)

		a.loadSeq++
		seq = a.loadSeq
		for _, l := range a.loads {
			l.superseded = true
			l.cancel()
		}
		loadCtx, cancel = context.WithCancel(ctx)
		a.loads[seq] = &inflightLoad{cancel: cancel}
	})
	if err != nil {
		return err
	}
	defer cancel()

	start := time.Now()
	cfg, loadErr := a.remote.Load(loadCtx)

	var result error
	err = a.do(func() {
		l := a.loads[seq]
		delete(a.loads, seq)
		superseded := l == nil || l.superseded

		if loadErr != nil {
			if superseded && errors.Is(loadErr, context.Canceled) {
				result = ErrSuperseded
				return
			}
			a.logger.Warn("settings load failed", "seq", seq, "err", loadErr)
			result = loadErr
			return
		}
		if seq <= a.appliedSeq {
			a.logger.Debug("discarding stale settings load", "seq", seq, "applied", a.appliedSeq)
			result = ErrSuperseded
			return
		}
		a.appliedSeq = seq
		a.current, a.known = cfg, true
		a.cache.Write(cfg)
		a.broadcast(cfg)
		a.logger.Debug("settings loaded", "seq", seq, "tiles", len(cfg.Tiles), "duration", time.Since(start))
	})
	if err != nil {
		return err
	}
	return result
}

// Save replaces the document optimistically: the in-memory state, the cache
// and every subscriber see cfg before the remote save is issued. A failed
// remote save is logged and published, never rolled back.
func (a *Agent) Save(cfg model.Config) error {
	cfg = cfg.Clone()
	return a.do(func() { a.commit(cfg) })
}

// PatchTile replaces the data of tile id. It reports false, and saves
// nothing, when no tile has that id.
func (a *Agent) PatchTile(id uuid.UUID, data model.TileData) (bool, error) {
	var found bool
	err := a.do(func() {
		if _, found = a.base().FindTile(id); !found {
			return
		}
		a.commit(model.PatchTile(a.base(), id, data))
	})
	return found, err
}

// PatchSecrets replaces the secrets section.
func (a *Agent) PatchSecrets(s model.Secrets) error {
	return a.do(func() {
		a.commit(model.PatchSecrets(a.base(), s))
	})
}

// AddTile appends a tile holding data and returns its fresh id.
func (a *Agent) AddTile(data model.TileData) (uuid.UUID, error) {
	var id uuid.UUID
	err := a.do(func() {
		var next model.Config
		next, id = model.AddTile(a.base(), data)
		a.commit(next)
	})
	return id, err
}

// DeleteTile removes tile id. It reports false, and saves nothing, when no
// tile has that id.
func (a *Agent) DeleteTile(id uuid.UUID) (bool, error) {
	var found bool
	err := a.do(func() {
		if _, found = a.base().FindTile(id); !found {
			return
		}
		a.commit(model.DeleteTile(a.base(), id))
	})
	return found, err
}

// Flush waits until no save is in flight or queued and returns the error of
// the last save attempt, if any. When idle it returns that error right away.
func (a *Agent) Flush(ctx context.Context) error {
	var (
		wait    chan error
		lastErr error
	)
	err := a.do(func() {
		if !a.saving {
			lastErr = a.lastSaveErr
			return
		}
		wait = make(chan error, 1)
		a.idleWaiters = append(a.idleWaiters, wait)
	})
	if err != nil {
		return err
	}
	if wait == nil {
		return lastErr
	}
	select {
	case err := <-wait:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-a.loopDone:
		return ErrClosed
	}
}

// base is the document mutations apply to. Runs on the loop.
func (a *Agent) base() model.Config {
	if !a.known {
		return model.Default()
	}
	return a.current
}

// commit accepts cfg as the new state. Runs on the loop.
func (a *Agent) commit(cfg model.Config) {
	a.current, a.known = cfg, true
	a.cache.Write(cfg)
	a.broadcast(cfg)
	a.requestSave(cfg)
}

func (a *Agent) requestSave(cfg model.Config) {
	if a.saving {
		a.pending = &cfg
		return
	}
	a.startSave(cfg)
}

func (a *Agent) startSave(cfg model.Config) {
	a.saving = true
	go func() {
		err := a.remote.Save(a.ctx, cfg)
		a.post(func() { a.saveDone(cfg, err) })
	}()
}

func (a *Agent) saveDone(cfg model.Config, err error) {
	a.lastSaveErr = err
	if err != nil {
		a.logger.Error("settings save failed", "tiles", len(cfg.Tiles), "err", err)
		failure := events.SettingsSaveFailed{
			Tiles:    len(cfg.Tiles),
			Error:    err.Error(),
			FailedAt: time.Now().UTC(),
		}
		if perr := a.publisher.Publish(a.ctx, events.TopicSettingsSaveFailed, failure); perr != nil {
			a.logger.Warn("failed to publish event", "topic", events.TopicSettingsSaveFailed, "err", perr)
		}
	} else {
		a.logger.Debug("settings saved", "tiles", len(cfg.Tiles))
	}

	if a.pending != nil {
		next := *a.pending
		a.pending = nil
		a.startSave(next)
		return
	}
	a.saving = false
	for _, w := range a.idleWaiters {
		w <- a.lastSaveErr
	}
	a.idleWaiters = nil
}
