package editor

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alfredjeanlab/trellis/internal/agent"
	"github.com/alfredjeanlab/trellis/internal/cache"
	"github.com/alfredjeanlab/trellis/internal/model"
)

type patch struct {
	id   uuid.UUID
	data model.TileData
}

// recordingPatcher records every PatchTile call.
type recordingPatcher struct {
	mu      sync.Mutex
	patches []patch
	calls   chan patch
}

func newRecordingPatcher() *recordingPatcher {
	return &recordingPatcher{calls: make(chan patch, 16)}
}

func (p *recordingPatcher) PatchTile(id uuid.UUID, data model.TileData) (bool, error) {
	p.mu.Lock()
	p.patches = append(p.patches, patch{id, data})
	p.mu.Unlock()
	p.calls <- patch{id, data}
	return true, nil
}

func (p *recordingPatcher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.patches)
}

const testDelay = 100 * time.Millisecond

var noteID = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")

func TestNoteEditor_DebouncesToOnePatch(t *testing.T) {
	p := newRecordingPatcher()
	e := New(noteID, "", p, WithDelay(testDelay))
	defer e.Close()

	for _, text := range []string{"h", "he", "hel", "hello"} {
		e.Input(text)
		time.Sleep(testDelay / 10)
	}
	if !e.Pending() {
		t.Fatal("edit should be pending before the quiet period ends")
	}

	select {
	case got := <-p.calls:
		if got.id != noteID || got.data != (model.Note{Text: "hello"}) {
			t.Errorf("patch = %+v, want Note{hello} on %s", got, noteID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the debounced patch")
	}

	time.Sleep(3 * testDelay)
	if n := p.count(); n != 1 {
		t.Errorf("PatchTile calls = %d, want 1", n)
	}
	if e.Pending() {
		t.Error("nothing should be pending after the commit")
	}
}

func TestNoteEditor_SeparateBurstsCommitSeparately(t *testing.T) {
	p := newRecordingPatcher()
	e := New(noteID, "", p, WithDelay(testDelay))
	defer e.Close()

	e.Input("a")
	<-p.calls
	e.Input("b")
	got := <-p.calls
	if got.data != (model.Note{Text: "b"}) {
		t.Errorf("second patch = %+v", got.data)
	}
}

func TestNoteEditor_CloseDropsPendingEdit(t *testing.T) {
	p := newRecordingPatcher()
	var logs safeBuffer
	e := New(noteID, "", p, WithDelay(testDelay), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	e.Input("lost")
	e.Close()
	e.Input("ignored")

	time.Sleep(3 * testDelay)
	if n := p.count(); n != 0 {
		t.Errorf("PatchTile calls = %d, want 0", n)
	}
	if logs.Len() == 0 {
		t.Error("dropping an edit should be logged")
	}
}

func TestNoteEditor_FlushCommitsImmediately(t *testing.T) {
	p := newRecordingPatcher()
	e := New(noteID, "start", p, WithDelay(time.Hour))
	defer e.Close()

	if err := e.Flush(); err != nil {
		t.Fatalf("Flush with nothing pending: %v", err)
	}
	if p.count() != 0 {
		t.Fatal("Flush with nothing pending should not patch")
	}

	e.Input("now")
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := <-p.calls; got.data != (model.Note{Text: "now"}) {
		t.Errorf("patch = %+v", got.data)
	}
	if e.Pending() || e.Text() != "now" {
		t.Errorf("Pending = %v, Text = %q", e.Pending(), e.Text())
	}
}

func TestNoteEditor_ThroughAgent(t *testing.T) {
	a := agent.New(agent.Options{
		Remote: nopRemote{},
		Cache:  cache.New(cache.NewMemoryStorage(), slog.New(slog.NewTextHandler(io.Discard, nil))),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer a.Close()

	if err := a.Save(model.Config{Tiles: []model.Tile{{ID: noteID, Data: model.Note{}}}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	e := New(noteID, "", a, WithDelay(testDelay))
	defer e.Close()
	e.Input("a")
	e.Input("ab")
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, _ := a.Current()
	want := model.Config{Tiles: []model.Tile{{ID: noteID, Data: model.Note{Text: "ab"}}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Current = %+v, want %+v", got, want)
	}
}

type nopRemote struct{}

func (nopRemote) Load(context.Context) (model.Config, error) { return model.Default(), nil }
func (nopRemote) Save(context.Context, model.Config) error   { return nil }
func (nopRemote) Close() error                               { return nil }

// safeBuffer is a bytes.Buffer safe for use from timer goroutines.
type safeBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *safeBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}
