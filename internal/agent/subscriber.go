package agent

import (
	"sync"

	"github.com/alfredjeanlab/trellis/internal/model"
)

// Observer receives document snapshots. Each observer is called from its own
// goroutine, one snapshot at a time and in acceptance order, so it may call
// back into the Agent.
type Observer func(model.Config)

// SubscriptionID identifies a registered observer.
type SubscriptionID uint64

// subscriber is an observer with its own unbounded delivery queue.
type subscriber struct {
	fn   Observer
	wake chan struct{}
	stop chan struct{}

	mu      sync.Mutex
	queue   []model.Config
	stopped bool
}

func newSubscriber(fn Observer) *subscriber {
	s := &subscriber{
		fn:   fn,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *subscriber) push(cfg model.Config) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, cfg)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) next() (model.Config, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || len(s.queue) == 0 {
		return model.Config{}, false
	}
	cfg := s.queue[0]
	s.queue[0] = model.Config{}
	s.queue = s.queue[1:]
	return cfg, true
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.stop:
			return
		case <-s.wake:
		}
		for {
			cfg, ok := s.next()
			if !ok {
				break
			}
			s.fn(cfg)
		}
	}
}

// close discards queued snapshots. A delivery already running completes.
func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.queue = nil
	close(s.stop)
}

// Subscribe registers fn. If a document is already known, fn receives it
// right away.
func (a *Agent) Subscribe(fn Observer) (SubscriptionID, error) {
	var id SubscriptionID
	err := a.do(func() {
		a.nextSub++
		id = a.nextSub
		s := newSubscriber(fn)
		a.subs[id] = s
		if a.known {
			s.push(a.current.Clone())
		}
	})
	return id, err
}

// Unsubscribe removes a subscription. Unknown or already removed ids are
// ignored, as are calls after Close.
func (a *Agent) Unsubscribe(id SubscriptionID) {
	_ = a.do(func() {
		if s, ok := a.subs[id]; ok {
			s.close()
			delete(a.subs, id)
		}
	})
}

// broadcast queues a snapshot of cfg for every subscriber. Runs on the loop.
func (a *Agent) broadcast(cfg model.Config) {
	for _, s := range a.subs {
		s.push(cfg.Clone())
	}
}
