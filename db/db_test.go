package db

import (
	"io/fs"
	"testing"

	"github.com/charmbracelet/log"
)

// setupTestDB sets up an in-memory test database with the schema loaded and
// statements prepared.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	sqlFS, err := fs.Sub(SQLEmbeddedFS, "sql")
	if err != nil {
		t.Fatalf("could not sub-mount embedded sql fs: %v", err)
	}

	testDB, err := NewConnection("file::memory:?cache=shared", sqlFS, nil)
	if err != nil {
		t.Fatalf("in-memory test database opening error: %v", err)
	}
	testDB.SetLogLevel(log.WarnLevel)

	t.Cleanup(func() {
		if err := testDB.Close(); err != nil {
			t.Fatalf("unexpected db close error: %v", err)
		}
	})
	return testDB
}

// TestConnectionInMemoryCacheCheck checks that in-memory connections without
// shared cache are rejected.
func TestConnectionInMemoryCacheCheck(t *testing.T) {
	sqlFS, err := fs.Sub(SQLEmbeddedFS, "sql")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewConnection(":memory:", sqlFS, nil); err == nil {
		t.Fatal("expected error for in-memory connection without cache=shared")
	}
}
