package tag

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "tags.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck

	schema := `
		CREATE TABLE nfc_tags (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL DEFAULT '',
			description  TEXT NOT NULL DEFAULT '',
			type         TEXT NOT NULL,
			attr         TEXT NOT NULL DEFAULT '{}',
			last_updated INTEGER NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	rec := &Record{
		ID:          "0414c8f2ab6180",
		Name:        "Front door",
		Description: "main entrance",
		Type:        "webhook",
		Attr:        map[string]any{"added_url": "http://hub.local/arrive"},
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "0414c8f2ab6180")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != rec.Name || got.Description != rec.Description || got.Type != rec.Type {
		t.Errorf("GetByID() = %+v, want fields of %+v", got, rec)
	}
	if got.Attr["added_url"] != "http://hub.local/arrive" {
		t.Errorf("Attr[added_url] = %v, want hub url", got.Attr["added_url"])
	}
	if got.LastUpdated.IsZero() {
		t.Error("LastUpdated not set on create")
	}
}

func TestSQLiteRepositoryGetMissing(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))

	_, err := repo.GetByID(context.Background(), "absent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepositoryDuplicateCreate(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	rec := &Record{ID: "abc123", Type: "webhook"}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := repo.Create(ctx, &Record{ID: "abc123", Type: "webhook"})
	if !errors.Is(err, ErrExists) {
		t.Errorf("duplicate Create() error = %v, want ErrExists", err)
	}
}

func TestSQLiteRepositoryDeleteIsIdempotent(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &Record{ID: "abc123", Type: "webhook"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(ctx, "abc123"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "abc123"); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}

	if _, err := repo.GetByID(ctx, "abc123"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepositoryLastUpdatedTime(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	empty, err := repo.LastUpdatedTime(ctx)
	if err != nil {
		t.Fatalf("LastUpdatedTime() error = %v", err)
	}
	if !empty.IsZero() {
		t.Errorf("LastUpdatedTime() on empty store = %v, want zero", empty)
	}

	older := time.Now().Add(-time.Hour).Truncate(time.Second)
	newer := time.Now().Truncate(time.Second)
	if err := repo.Create(ctx, &Record{ID: "a", Type: "webhook", LastUpdated: older}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, &Record{ID: "b", Type: "webhook", LastUpdated: newer}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.LastUpdatedTime(ctx)
	if err != nil {
		t.Fatalf("LastUpdatedTime() error = %v", err)
	}
	if !got.Equal(newer) {
		t.Errorf("LastUpdatedTime() = %v, want %v", got, newer)
	}
}

func TestSQLiteRepositoryReplaceAll(t *testing.T) {
	repo := NewSQLiteRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &Record{ID: "old", Type: "webhook"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := repo.ReplaceAll(ctx, []Record{
		{ID: "new1", Type: "webhook"},
		{ID: "new2", Type: "webhook", Attr: map[string]any{"k": "v"}},
	})
	if err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	recs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(recs))
	}
	if recs[0].ID != "new1" || recs[1].ID != "new2" {
		t.Errorf("List() ids = %s, %s; want new1, new2", recs[0].ID, recs[1].ID)
	}
}
