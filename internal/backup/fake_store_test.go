package backup

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/alfredjeanlab/trellis/internal/store"
)

// fakeStore is an in-memory store.SettingsStore for backup tests.
type fakeStore struct {
	mu      sync.Mutex
	docs    map[string]*store.Document
	listErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]*store.Document)}
}

func (f *fakeStore) GetSettings(_ context.Context, userID string) (*store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (f *fakeStore) PutSettings(_ context.Context, doc *store.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	if old, ok := f.docs[doc.UserID]; ok {
		doc.CreatedAt = old.CreatedAt
	} else {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	cp := *doc
	f.docs[doc.UserID] = &cp
	return nil
}

func (f *fakeStore) ListSettings(_ context.Context) ([]*store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*store.Document, 0, len(f.docs))
	for _, d := range f.docs {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeStore) DeleteSettings(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[userID]; !ok {
		return sql.ErrNoRows
	}
	delete(f.docs, userID)
	return nil
}

func (f *fakeStore) Close() error { return nil }

var errFake = errors.New("fake failure")
