package vfs

import (
	"context"
	"fmt"
	"sync"

	"ecorpus-go/internal/database"
	"ecorpus-go/internal/database/sqlc"
)

const (
	// FolderMime marks a file row that stands for a directory.
	FolderMime = "text/directory"
	// folderHash is stored in place of a content hash on folder rows.
	folderHash = "directory"

	// DocName is the fixed logical name of a scene's document.
	DocName = "scene.svx.json"
	// DocMime is the media type of a scene's document.
	DocMime = "application/si-dpo-3d.document+json"

	defaultMime = "application/octet-stream"

	// maxIDAttempts bounds the retries on a random identifier collision.
	maxIDAttempts = 3
)

// Options tunes catalog defaults.
type Options struct {
	// PublicScenes grants anonymous read access to new scenes.
	PublicScenes bool
}

// VFS is the versioned scene filesystem: a relational catalog of scenes,
// file generations and documents whose content lives in an ObjectStore.
type VFS struct {
	db      *database.DB
	objects ObjectStore
	logger  Logger
	clock   Clock
	ids     IDGenerator
	opts    Options

	mu       sync.Mutex
	creating map[string]struct{}
}

// New creates a VFS with the provided dependencies.
func New(db *database.DB, objects ObjectStore, logger Logger, clock Clock, ids IDGenerator, opts Options) *VFS {
	return &VFS{
		db:       db,
		objects:  objects,
		logger:   logger,
		clock:    clock,
		ids:      ids,
		opts:     opts,
		creating: make(map[string]struct{}),
	}
}

// Objects returns the object store holding file content.
func (v *VFS) Objects() ObjectStore {
	return v.objects
}

// now is the current time in catalog units.
func (v *VFS) now() int64 {
	return toMillis(v.clock.Now())
}

// view runs read-only work in a transaction so multi-query reads see one
// snapshot.
func (v *VFS) view(ctx context.Context, work func(ctx context.Context, q *sqlc.Queries) error) error {
	return v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		return work(ctx, tx.Queries())
	})
}

// lookupScene resolves a scene by name.
func lookupScene(ctx context.Context, q *sqlc.Queries, name string) (sqlc.GetSceneRow, error) {
	if name == "" {
		return sqlc.GetSceneRow{}, ErrBadRequest.New("scene name is required")
	}
	row, err := q.GetScene(ctx, sqlc.GetSceneParams{SceneID: -1, SceneName: name})
	if err != nil {
		if database.IsNotFound(err) {
			return sqlc.GetSceneRow{}, ErrNotFound.New("scene %q", name)
		}
		return sqlc.GetSceneRow{}, fmt.Errorf("getting scene %q: %w", name, err)
	}
	return row, nil
}

// lookupSceneID resolves a scene name to its identifier.
func lookupSceneID(ctx context.Context, q *sqlc.Queries, name string) (int64, error) {
	row, err := lookupScene(ctx, q, name)
	if err != nil {
		return 0, err
	}
	return row.SceneID, nil
}
