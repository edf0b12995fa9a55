package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vietddude/draftsync/internal/infra/storage/storagetest"
)

func TestSQLite_Contract(t *testing.T) {
	backend, err := Open(filepath.Join(t.TempDir(), "draftsync.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer backend.Close()

	storagetest.RunContract(t, backend)
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draftsync.db")
	ctx := context.Background()

	backend, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := backend.Namespace("draft").Set(ctx, "current", []byte(`{"name":"x"}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	backend.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	v, found, err := reopened.Namespace("draft").Get(ctx, "current")
	if err != nil || !found {
		t.Fatalf("expected value after reopen, found=%v err=%v", found, err)
	}
	if string(v) != `{"name":"x"}` {
		t.Errorf("unexpected value %q", v)
	}
}
