package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "quaderno.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteSlotLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, ok, err := repo.ReadSlot(ctx, "expenses"); ok || err != nil {
		t.Fatalf("expected absent slot, ok=%v err=%v", ok, err)
	}
	if err := repo.WriteSlot(ctx, "expenses", []byte(`[]`)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.WriteSlot(ctx, "expenses", []byte(`[{"note":"x"}]`)); err != nil {
		t.Fatalf("update: %v", err)
	}
	v, ok, err := repo.ReadSlot(ctx, "expenses")
	if err != nil || !ok || string(v) != `[{"note":"x"}]` {
		t.Fatalf("unexpected read %q ok=%v err=%v", v, ok, err)
	}

	var n int
	if err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM slots`); err != nil || n != 1 {
		t.Fatalf("expected a single row, got %d (err=%v)", n, err)
	}

	if err := repo.DeleteSlot(ctx, "expenses"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := repo.ReadSlot(ctx, "expenses"); ok {
		t.Fatalf("slot still present")
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quaderno.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = repo.WriteSlot(context.Background(), "expenses", []byte("[1]"))
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	v, ok, _ := repo.ReadSlot(context.Background(), "expenses")
	if !ok || string(v) != "[1]" {
		t.Fatalf("value lost across reopen: %q", v)
	}
}

func TestSQLiteSchemaVersion(t *testing.T) {
	repo := newTestRepo(t)
	if v := repo.SchemaVersion(); v != 1 {
		t.Fatalf("SchemaVersion() = %d, want 1", v)
	}
}
