package vfs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ecorpus-go/internal/database"
	"ecorpus-go/internal/database/sqlc"
)

// Scene is a named collection of files and one current document.
type Scene struct {
	ID    int64
	Name  string
	Ctime time.Time
	// Mtime is the time of the latest document write, or Ctime before the
	// first one.
	Mtime  time.Time
	Access AccessMap
}

// ItemType distinguishes file and document entries of a scene history.
type ItemType string

const (
	ItemFile ItemType = "file"
	ItemDoc  ItemType = "doc"
)

// HistoryEntry is one generation of a file or of the document.
type HistoryEntry struct {
	Type       ItemType
	Name       string
	ID         int64
	Generation int64
	Ctime      time.Time
	Hash       string // empty for tombstones and documents
	Size       int64
	Mime       string
	AuthorID   int64
	Author     string
}

func sceneFromRow(row sqlc.GetSceneRow) (Scene, error) {
	access, err := parseAccess(row.Access)
	if err != nil {
		return Scene{}, fmt.Errorf("scene %q: %w", row.SceneName, err)
	}
	return Scene{
		ID:     row.SceneID,
		Name:   row.SceneName,
		Ctime:  fromMillis(row.Ctime),
		Mtime:  fromMillis(row.Mtime),
		Access: access,
	}, nil
}

func validSceneName(name string) error {
	if name == "" {
		return ErrBadRequest.New("scene name is required")
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return ErrBadRequest.New("invalid scene name %q", name)
	}
	return nil
}

// lockName reserves name for an in-flight creation. A second concurrent
// creation of the same name fails fast instead of waiting on the write lock.
func (v *VFS) lockName(name string) (unlock func(), err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, busy := v.creating[name]; busy {
		return nil, ErrConflict.New("scene %q is being created", name)
	}
	v.creating[name] = struct{}{}
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.creating, name)
	}, nil
}

// CreateScene creates an empty scene and returns its id. A non-zero owner is
// granted admin on it.
func (v *VFS) CreateScene(ctx context.Context, name string, owner int64) (int64, error) {
	if err := validSceneName(name); err != nil {
		return 0, err
	}
	unlock, err := v.lockName(name)
	if err != nil {
		return 0, err
	}
	defer unlock()

	access := DefaultAccess(v.opts.PublicScenes)
	if owner != 0 {
		if _, err := v.GetUserByID(ctx, owner); err != nil {
			return 0, err
		}
		access[UserPrincipal(owner)] = AccessAdmin
	}
	encoded, err := encodeAccess(access)
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := v.ids.New()
		err := v.db.Queries().InsertScene(ctx, sqlc.InsertSceneParams{
			SceneID:   id,
			SceneName: name,
			Ctime:     v.now(),
			Access:    encoded,
		})
		switch {
		case err == nil:
			v.logger.Info("scene created", "scene", name, "id", id, "owner", owner)
			return id, nil
		case database.IsPrimaryKeyViolation(err):
			v.logger.Debug("scene id collision", "id", id, "attempt", attempt+1)
			continue
		case database.IsUniqueViolation(err):
			return 0, ErrConflict.New("scene %q already exists", name)
		default:
			return 0, fmt.Errorf("inserting scene %q: %w", name, err)
		}
	}
	return 0, ErrConflict.New("could not allocate a scene id after %d attempts", maxIDAttempts)
}

// GetScene returns the scene called name.
func (v *VFS) GetScene(ctx context.Context, name string) (Scene, error) {
	row, err := lookupScene(ctx, v.db.Queries(), name)
	if err != nil {
		return Scene{}, err
	}
	return sceneFromRow(row)
}

func (v *VFS) GetSceneByID(ctx context.Context, id int64) (Scene, error) {
	row, err := v.db.Queries().GetScene(ctx, sqlc.GetSceneParams{SceneID: id})
	if err != nil {
		if database.IsNotFound(err) {
			return Scene{}, ErrNotFound.New("scene %d", id)
		}
		return Scene{}, fmt.Errorf("getting scene %d: %w", id, err)
	}
	// An empty name cannot exist, so a match on SceneName is impossible here.
	return sceneFromRow(row)
}

// ListScenes returns scenes ordered case-insensitively by name. With a
// non-administrator requester, only scenes readable by them are returned.
func (v *VFS) ListScenes(ctx context.Context, requester *User) ([]Scene, error) {
	rows, err := v.db.Queries().ListScenes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing scenes: %w", err)
	}

	scenes := make([]Scene, 0, len(rows))
	for _, row := range rows {
		s, err := sceneFromRow(sqlc.GetSceneRow(row))
		if err != nil {
			return nil, err
		}
		if requester != nil && !requester.IsAdministrator && s.Access.Resolve(requester.ID) < AccessRead {
			continue
		}
		scenes = append(scenes, s)
	}
	return scenes, nil
}

func (v *VFS) RenameScene(ctx context.Context, name, newName string) error {
	if err := validSceneName(newName); err != nil {
		return err
	}
	return v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		id, err := lookupSceneID(ctx, tx.Queries(), name)
		if err != nil {
			return err
		}
		_, err = tx.Queries().UpdateSceneName(ctx, sqlc.UpdateSceneNameParams{SceneName: newName, SceneID: id})
		if database.IsUniqueViolation(err) {
			return ErrConflict.New("scene %q already exists", newName)
		}
		if err != nil {
			return fmt.Errorf("renaming scene %q: %w", name, err)
		}
		v.logger.Info("scene renamed", "scene", name, "to", newName)
		return nil
	})
}

// ArchiveScene collapses the scene's access map so that only administrators
// can reach it.
func (v *VFS) ArchiveScene(ctx context.Context, name string) error {
	encoded, err := encodeAccess(AccessMap{PrincipalDefault: AccessNone})
	if err != nil {
		return err
	}
	return v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		id, err := lookupSceneID(ctx, tx.Queries(), name)
		if err != nil {
			return err
		}
		if _, err := tx.Queries().UpdateSceneAccess(ctx, sqlc.UpdateSceneAccessParams{Access: encoded, SceneID: id}); err != nil {
			return fmt.Errorf("archiving scene %q: %w", name, err)
		}
		v.logger.Info("scene archived", "scene", name)
		return nil
	})
}

// RemoveScene hard-deletes a scene with its files and documents. Objects are
// left for Clean.
func (v *VFS) RemoveScene(ctx context.Context, name string) error {
	return v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		id, err := lookupSceneID(ctx, tx.Queries(), name)
		if err != nil {
			return err
		}
		if _, err := tx.Queries().DeleteScene(ctx, id); err != nil {
			return fmt.Errorf("deleting scene %q: %w", name, err)
		}
		v.logger.Info("scene removed", "scene", name, "id", id)
		return nil
	})
}

// GetSceneHistory returns every file and document generation of the scene,
// newest first, then by name, then by generation descending.
func (v *VFS) GetSceneHistory(ctx context.Context, name string) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := v.view(ctx, func(ctx context.Context, q *sqlc.Queries) error {
		var err error
		entries, err = sceneHistory(ctx, q, name)
		return err
	})
	return entries, err
}

func sceneHistory(ctx context.Context, q *sqlc.Queries, name string) ([]HistoryEntry, error) {
	id, err := lookupSceneID(ctx, q, name)
	if err != nil {
		return nil, err
	}
	rows, err := q.GetSceneHistory(ctx, sqlc.GetSceneHistoryParams{SceneID: id, DocName: DocName, DocMime: DocMime})
	if err != nil {
		return nil, fmt.Errorf("getting history of scene %q: %w", name, err)
	}

	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, HistoryEntry{
			Type:       ItemType(row.Type),
			Name:       row.Name,
			ID:         row.ID,
			Generation: row.Generation,
			Ctime:      fromMillis(row.Ctime),
			Hash:       row.Hash.String,
			Size:       row.Size,
			Mime:       row.Mime,
			AuthorID:   row.AuthorID,
			Author:     row.Author,
		})
	}
	return entries, nil
}
