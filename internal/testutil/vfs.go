package testutil

import (
	"path/filepath"
	"testing"

	"ecorpus-go/internal/database"
	"ecorpus-go/internal/objects"
	"ecorpus-go/internal/vfs"
)

// NewTestDatabase creates a file-backed catalog with migrations applied in a
// temporary directory. The database is closed when the test completes.
func NewTestDatabase(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		t.Fatalf("failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestVFS bundles a VFS with the doubles it was built from.
type TestVFS struct {
	*vfs.VFS
	DB      *database.DB
	Objects *objects.MemoryStore
	Clock   *StubClock
	IDs     *StubIDGenerator
}

// NewTestVFS creates a VFS over a fresh catalog and an in-memory object
// store, with public scenes.
func NewTestVFS(t *testing.T) *TestVFS {
	t.Helper()

	db := NewTestDatabase(t)
	store := objects.NewMemoryStore()
	clock := FixedClock()
	ids := NewStubIDGenerator()

	return &TestVFS{
		VFS:     vfs.New(db, store, vfs.NewNopLogger(), clock, ids, vfs.Options{PublicScenes: true}),
		DB:      db,
		Objects: store,
		Clock:   clock,
		IDs:     ids,
	}
}
