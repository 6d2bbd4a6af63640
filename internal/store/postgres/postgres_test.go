package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/alfredjeanlab/trellis/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var settingsRowColumns = []string{"user_id", "value", "created_at", "updated_at"}

func TestQueryPutSettings(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	doc := &store.Document{UserID: "user-1", Value: json.RawMessage(`{"secrets":{},"tiles":[]}`)}
	mock.ExpectQuery("INSERT INTO settings .+ ON CONFLICT \\(user_id\\) DO UPDATE").
		WithArgs("user-1", []byte(`{"secrets":{},"tiles":[]}`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	if err := queryPutSettings(context.Background(), db, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.CreatedAt.IsZero() || doc.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestQueryPutSettings_RequiresUser(t *testing.T) {
	db, _ := newMockDB(t)
	if err := queryPutSettings(context.Background(), db, &store.Document{Value: json.RawMessage(`{}`)}); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestQueryGetSettings(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM settings WHERE user_id = \\$1").WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(settingsRowColumns).
			AddRow("user-1", []byte(`{"secrets":{},"tiles":[]}`), now, now))

	doc, err := queryGetSettings(context.Background(), db, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.UserID != "user-1" || string(doc.Value) != `{"secrets":{},"tiles":[]}` {
		t.Fatalf("got %+v", doc)
	}
}

func TestQueryGetSettings_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM settings WHERE user_id = \\$1").WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	if _, err := queryGetSettings(context.Background(), db, "nobody"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryListSettings(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM settings ORDER BY user_id").
		WillReturnRows(sqlmock.NewRows(settingsRowColumns).
			AddRow("alice", []byte(`{}`), now, now).
			AddRow("bob", []byte(`{}`), now, now))

	docs, err := queryListSettings(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 || docs[0].UserID != "alice" || docs[1].UserID != "bob" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
}

func TestQueryListSettings_ScanError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM settings ORDER BY user_id").
		WillReturnRows(sqlmock.NewRows(settingsRowColumns).
			AddRow("alice", []byte(`{}`), "not-a-time", time.Now()))

	if _, err := queryListSettings(context.Background(), db); err == nil {
		t.Fatal("expected scan error")
	}
}

func TestQueryDeleteSettings(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM settings WHERE user_id = \\$1").WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryDeleteSettings(context.Background(), db, "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryDeleteSettings_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM settings WHERE user_id = \\$1").WithArgs("nobody").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryDeleteSettings(context.Background(), db, "nobody"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestPostgresStore_DelegatesToQueries(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO settings").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectQuery("SELECT .+ FROM settings WHERE user_id").
		WillReturnRows(sqlmock.NewRows(settingsRowColumns).AddRow("u", []byte(`{}`), now, now))
	mock.ExpectClose()

	if err := s.PutSettings(context.Background(), &store.Document{UserID: "u", Value: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("PutSettings: %v", err)
	}
	if _, err := s.GetSettings(context.Background(), "u"); err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("reading embedded migrations: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected up and down migrations, got %d files", len(entries))
	}
}
