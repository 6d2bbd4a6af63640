// Package presence keeps an in-memory roster of the sessions each user has
// used recently, so a user can see which of their devices are signed in and
// syncing.
//
// The server records every authenticated settings call. A background reaper
// marks sessions idle after a threshold and later forgets them.
package presence

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Activity is one authenticated call seen by the server.
type Activity struct {
	UserID    string
	SessionID string
	Client    string // User-Agent, or the gRPC user agent
	Op        string // "load" or "save"
}

// Entry is a snapshot of one session's presence.
type Entry struct {
	SessionID string    `json:"session_id"`
	Client    string    `json:"client,omitempty"`
	LastOp    string    `json:"last_op"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	IdleSecs  float64   `json:"idle_secs"`
	Loads     int64     `json:"loads"`
	Saves     int64     `json:"saves"`
	Idle      bool      `json:"idle,omitempty"`
}

// ReaperConfig configures the background reaper.
type ReaperConfig struct {
	// IdleAfter is how long a session may go without a call before it is
	// marked idle. Default: 15 minutes.
	IdleAfter time.Duration

	// EvictAfter is how long an idle session stays listed before it is
	// forgotten. Default: 24 hours.
	EvictAfter time.Duration

	// SweepInterval is how often the reaper runs. Default: 60 seconds.
	SweepInterval time.Duration

	// OnIdle is called, outside the lock, for each session newly marked idle.
	OnIdle func(userID, sessionID string)
}

func (c *ReaperConfig) withDefaults() ReaperConfig {
	out := ReaperConfig{}
	if c != nil {
		out = *c
	}
	if out.IdleAfter == 0 {
		out.IdleAfter = 15 * time.Minute
	}
	if out.EvictAfter == 0 {
		out.EvictAfter = 24 * time.Hour
	}
	if out.SweepInterval == 0 {
		out.SweepInterval = 60 * time.Second
	}
	return out
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	users map[string]map[string]*sessionState // user id -> session id -> state
	now   func() time.Time

	reaperStop chan struct{}
	reaperDone chan struct{}
}

type sessionState struct {
	client    string
	lastOp    string
	firstSeen time.Time
	lastSeen  time.Time
	loads     int64
	saves     int64
	idle      bool
	idleAt    time.Time
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{
		users: make(map[string]map[string]*sessionState),
		now:   time.Now,
	}
}

// Record notes a call. Activity without a user or session is ignored.
func (t *Tracker) Record(a Activity) {
	if a.UserID == "" || a.SessionID == "" {
		return
	}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	sessions, ok := t.users[a.UserID]
	if !ok {
		sessions = make(map[string]*sessionState)
		t.users[a.UserID] = sessions
	}
	st, ok := sessions[a.SessionID]
	if !ok {
		st = &sessionState{firstSeen: now}
		sessions[a.SessionID] = st
	}
	if st.idle {
		slog.Debug("presence: session active again", "user_id", a.UserID, "session_id", a.SessionID)
		st.idle = false
		st.idleAt = time.Time{}
	}

	st.lastSeen = now
	st.lastOp = a.Op
	if a.Client != "" {
		st.client = a.Client
	}
	switch a.Op {
	case "load":
		st.loads++
	case "save":
		st.saves++
	}
}

// Devices returns the sessions of userID, most recently active first.
func (t *Tracker) Devices(userID string) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	sessions := t.users[userID]
	entries := make([]Entry, 0, len(sessions))
	for id, st := range sessions {
		entries = append(entries, Entry{
			SessionID: id,
			Client:    st.client,
			LastOp:    st.lastOp,
			FirstSeen: st.firstSeen,
			LastSeen:  st.lastSeen,
			IdleSecs:  now.Sub(st.lastSeen).Seconds(),
			Loads:     st.loads,
			Saves:     st.saves,
			Idle:      st.idle,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastSeen.After(entries[j].LastSeen)
	})
	return entries
}

// Active returns the number of sessions, across all users, not marked idle.
func (t *Tracker) Active() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, sessions := range t.users {
		for _, st := range sessions {
			if !st.idle {
				n++
			}
		}
	}
	return n
}

// StartReaper launches the reaper goroutine. Call Stop to shut it down.
func (t *Tracker) StartReaper(cfg *ReaperConfig) {
	c := cfg.withDefaults()
	t.reaperStop = make(chan struct{})
	t.reaperDone = make(chan struct{})

	go t.reapLoop(c)
	slog.Info("presence: reaper started",
		"idle_after", c.IdleAfter,
		"sweep_interval", c.SweepInterval)
}

// Stop shuts down the reaper goroutine.
func (t *Tracker) Stop() {
	if t.reaperStop != nil {
		close(t.reaperStop)
		<-t.reaperDone
		t.reaperStop = nil
		t.reaperDone = nil
	}
}

func (t *Tracker) reapLoop(cfg ReaperConfig) {
	defer close(t.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.reaperStop:
			return
		case <-ticker.C:
			t.sweep(cfg)
		}
	}
}

func (t *Tracker) sweep(cfg ReaperConfig) {
	now := t.now()

	type idleSession struct{ userID, sessionID string }
	var newlyIdle []idleSession

	t.mu.Lock()
	for userID, sessions := range t.users {
		for id, st := range sessions {
			if st.idle {
				if now.Sub(st.idleAt) > cfg.EvictAfter {
					delete(sessions, id)
				}
				continue
			}
			if now.Sub(st.lastSeen) > cfg.IdleAfter {
				st.idle = true
				st.idleAt = now
				newlyIdle = append(newlyIdle, idleSession{userID, id})
			}
		}
		if len(sessions) == 0 {
			delete(t.users, userID)
		}
	}
	t.mu.Unlock()

	for _, s := range newlyIdle {
		slog.Debug("presence: session idle", "user_id", s.userID, "session_id", s.sessionID, "threshold", cfg.IdleAfter)
		if cfg.OnIdle != nil {
			cfg.OnIdle(s.userID, s.sessionID)
		}
	}
}
