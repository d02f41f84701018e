package vfs

import (
	"context"

	"ecorpus-go/internal/database"
	"ecorpus-go/internal/database/sqlc"
)

// HistoryPoint identifies an entry of a scene history.
type HistoryPoint struct {
	Type ItemType
	ID   int64
}

type itemKey struct {
	typ  ItemType
	name string
}

// RestoreScene brings every file and the document back to their state as of
// point. Entries newer than point are undone by appending, for each name, a
// copy of its latest version at or before point, or a tombstone when the name
// did not exist yet. The document can never be tombstoned: a point older than
// the first document is rejected. Returns the number of items changed.
func (v *VFS) RestoreScene(ctx context.Context, scene string, point HistoryPoint, author int64) (int, error) {
	var restored int
	err := v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		q := tx.Queries()
		history, err := sceneHistory(ctx, q, scene)
		if err != nil {
			return err
		}
		sceneID, err := lookupSceneID(ctx, q, scene)
		if err != nil {
			return err
		}

		at := -1
		for i, e := range history {
			if e.Type == point.Type && e.ID == point.ID {
				at = i
				break
			}
		}
		if at < 0 {
			return ErrNotFound.New("%s %d in history of scene %q", point.Type, point.ID, scene)
		}
		working, reference := history[:at], history[at:]

		seen := make(map[itemKey]bool)
		for _, e := range working {
			key := itemKey{e.Type, e.Name}
			if seen[key] {
				continue
			}
			seen[key] = true

			ref, found := findEntry(reference, key)
			if key.typ == ItemDoc {
				if !found {
					return ErrBadRequest.New("restoring scene %q would leave it without a document", scene)
				}
				if err := v.restoreDoc(ctx, tx, sceneID, ref, author); err != nil {
					return err
				}
				restored++
				continue
			}

			changed, err := v.restoreFile(ctx, tx, sceneID, key.name, ref, found, author)
			if err != nil {
				return err
			}
			if changed {
				restored++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	v.logger.Info("scene restored", "scene", scene, "type", string(point.Type), "id", point.ID, "items", restored)
	return restored, nil
}

// findEntry returns the newest entry for key in entries.
func findEntry(entries []HistoryEntry, key itemKey) (HistoryEntry, bool) {
	for _, e := range entries {
		if e.Type == key.typ && e.Name == key.name {
			return e, true
		}
	}
	return HistoryEntry{}, false
}

func (v *VFS) restoreDoc(ctx context.Context, tx *database.Tx, sceneID int64, ref HistoryEntry, author int64) error {
	row, err := tx.Queries().GetDocumentByGeneration(ctx, sqlc.GetDocumentByGenerationParams{FkSceneID: sceneID, Generation: ref.Generation})
	if err != nil {
		return ErrInternal.Wrap(err)
	}
	_, err = v.insertDoc(ctx, tx, sceneID, row.Data, author)
	return err
}

// restoreFile sets name to the state recorded by ref, or to a tombstone when
// the name had no entry at the restore point. Names that are already absent
// are left alone.
func (v *VFS) restoreFile(ctx context.Context, tx *database.Tx, sceneID int64, name string, ref HistoryEntry, found bool, author int64) (bool, error) {
	current, ok, err := latestFile(ctx, tx.Queries(), sceneID, name)
	if err != nil {
		return false, err
	}

	if !found || ref.Hash == "" {
		if !ok || current.IsDeleted() {
			return false, nil
		}
		_, err := v.appendGeneration(ctx, tx, sceneID, name, current.Mime, author, StaticContent(nil))
		return err == nil, err
	}

	_, err = v.appendGeneration(ctx, tx, sceneID, name, ref.Mime, author, StaticContent(&Content{Hash: ref.Hash, Size: ref.Size}))
	return err == nil, err
}
