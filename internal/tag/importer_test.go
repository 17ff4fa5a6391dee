package tag

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeDefinitions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tags.yml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing definition file: %v", err)
	}
	return path
}

func TestImporterPopulatesEmptyStore(t *testing.T) {
	repo := NewMockRepository()
	reg := NewRegistry(repo)

	path := writeDefinitions(t, `
abc123:
  name: Front door
  type: webhook
  added_url: http://hub.local/arrive
def456:
  _name: Back door
  desc: rear entrance
  type: webhook
  added_url: http://hub.local/depart
`)

	im := NewImporter(repo, reg, path)
	if err := im.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	rec, err := repo.GetByID(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if rec.Name != "Front door" {
		t.Errorf("Name = %q, want %q", rec.Name, "Front door")
	}
	if rec.Type != "webhook" {
		t.Errorf("Type = %q, want %q", rec.Type, "webhook")
	}
	if rec.Attr["added_url"] != "http://hub.local/arrive" {
		t.Errorf("Attr[added_url] = %v, want hub url", rec.Attr["added_url"])
	}
	if _, ok := rec.Attr["name"]; ok {
		t.Error("reserved key name leaked into attributes")
	}

	rec, err = repo.GetByID(context.Background(), "def456")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if rec.Name != "Back door" {
		t.Errorf("_name fallback: Name = %q, want %q", rec.Name, "Back door")
	}
	if rec.Description != "rear entrance" {
		t.Errorf("desc fallback: Description = %q, want %q", rec.Description, "rear entrance")
	}
}

func TestImporterReservedKeyPrecedence(t *testing.T) {
	repo := NewMockRepository()
	reg := NewRegistry(repo)

	path := writeDefinitions(t, `
abc123:
  name: wins
  _name: loses
  description: wins too
  desc: loses too
  type: webhook
`)

	im := NewImporter(repo, reg, path)
	if err := im.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	rec, err := repo.GetByID(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if rec.Name != "wins" {
		t.Errorf("Name = %q, name must win over _name", rec.Name)
	}
	if rec.Description != "wins too" {
		t.Errorf("Description = %q, description must win over desc", rec.Description)
	}
	for _, key := range []string{"name", "_name", "description", "desc", "type"} {
		if _, ok := rec.Attr[key]; ok {
			t.Errorf("reserved key %q leaked into attributes", key)
		}
	}
}

func TestImporterSkipsWhenStoreIsNewer(t *testing.T) {
	repo := NewMockRepository()
	reg := NewRegistry(repo)

	// Store write in the future, definitively newer than the file.
	repo.records["keep"] = Record{ID: "keep", LastUpdated: time.Now().Add(time.Hour)}

	path := writeDefinitions(t, "abc123:\n  type: webhook\n")

	im := NewImporter(repo, reg, path)
	if err := im.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := repo.GetByID(context.Background(), "keep"); err != nil {
		t.Error("import ran despite store being newer, existing record lost")
	}
}

func TestImporterReplacesOlderStore(t *testing.T) {
	repo := NewMockRepository()
	reg := NewRegistry(repo)

	repo.records["stale"] = Record{ID: "stale", LastUpdated: time.Now().Add(-24 * time.Hour)}

	path := writeDefinitions(t, "fresh:\n  type: webhook\n")

	im := NewImporter(repo, reg, path)
	if err := im.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := repo.GetByID(context.Background(), "stale"); err == nil {
		t.Error("destructive import kept a stale record")
	}
	if _, err := repo.GetByID(context.Background(), "fresh"); err != nil {
		t.Error("imported record missing after replace")
	}
}

func TestImporterInvalidatesResolveCache(t *testing.T) {
	repo := NewMockRepository()
	reg := NewRegistry(repo)
	ctx := context.Background()

	// Populate the cache with an unregistered placeholder.
	before, err := reg.Resolve(ctx, "abc123")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, ok := before.(Unregistered); !ok {
		t.Fatalf("Resolve() returned %T, want Unregistered", before)
	}

	path := writeDefinitions(t, "abc123:\n  name: imported\n")
	im := NewImporter(repo, reg, path)
	if err := im.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	after, err := reg.Resolve(ctx, "abc123")
	if err != nil {
		t.Fatalf("post-import Resolve() error = %v", err)
	}
	if _, ok := after.(Unregistered); ok {
		t.Error("resolve cache not invalidated by import, still sees placeholder")
	}
	if after.Name() != "imported" {
		t.Errorf("post-import Name() = %q, want %q", after.Name(), "imported")
	}
}

func TestImporterMissingFileIsNoOp(t *testing.T) {
	repo := NewMockRepository()
	reg := NewRegistry(repo)

	im := NewImporter(repo, reg, filepath.Join(t.TempDir(), "absent.yml"))
	if err := im.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v, want nil for missing file", err)
	}
}

func TestImporterEmptyPathDisabled(t *testing.T) {
	repo := NewMockRepository()
	reg := NewRegistry(repo)

	im := NewImporter(repo, reg, "")
	if err := im.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v, want nil for empty path", err)
	}
}
