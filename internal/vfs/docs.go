package vfs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ecorpus-go/internal/database"
	"ecorpus-go/internal/database/sqlc"
)

// DocProps is one generation of a scene's document.
type DocProps struct {
	ID         int64
	Generation int64
	Data       string
	Ctime      time.Time
	AuthorID   int64
	Author     string
}

func docFromRow(row sqlc.GetLatestDocumentRow) DocProps {
	return DocProps{
		ID:         row.DocID,
		Generation: row.Generation,
		Data:       row.Data,
		Ctime:      fromMillis(row.Ctime),
		AuthorID:   row.FkAuthorID,
		Author:     row.Author,
	}
}

// insertDoc appends the next document generation of sceneID.
func (v *VFS) insertDoc(ctx context.Context, tx *database.Tx, sceneID int64, data string, author int64) (DocProps, error) {
	q := tx.Queries()
	row, err := q.InsertDocument(ctx, sqlc.InsertDocumentParams{
		Data:       data,
		Ctime:      v.now(),
		FkSceneID:  sceneID,
		FkAuthorID: author,
	})
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return DocProps{}, ErrNotFound.New("scene %d", sceneID)
		}
		return DocProps{}, fmt.Errorf("inserting document: %w", err)
	}
	got, err := q.GetDocumentByGeneration(ctx, sqlc.GetDocumentByGenerationParams{FkSceneID: sceneID, Generation: row.Generation})
	if err != nil {
		return DocProps{}, fmt.Errorf("reading back document generation %d: %w", row.Generation, err)
	}
	return docFromRow(sqlc.GetLatestDocumentRow(got)), nil
}

// WriteDoc stores data as the next document generation of scene. data must
// be valid JSON.
func (v *VFS) WriteDoc(ctx context.Context, scene string, data []byte, author int64) (DocProps, error) {
	if !json.Valid(data) {
		return DocProps{}, ErrBadRequest.New("document of scene %q is not valid JSON", scene)
	}

	var doc DocProps
	err := v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		sceneID, err := lookupSceneID(ctx, tx.Queries(), scene)
		if err != nil {
			return err
		}
		doc, err = v.insertDoc(ctx, tx, sceneID, string(data), author)
		return err
	})
	if err != nil {
		return DocProps{}, err
	}
	v.logger.Debug("document written", "scene", scene, "generation", doc.Generation)
	return doc, nil
}

// GetDoc returns a document generation of scene, the latest when generation
// is 0.
func (v *VFS) GetDoc(ctx context.Context, scene string, generation int64) (DocProps, error) {
	var doc DocProps
	err := v.view(ctx, func(ctx context.Context, q *sqlc.Queries) error {
		sceneID, err := lookupSceneID(ctx, q, scene)
		if err != nil {
			return err
		}
		if generation == 0 {
			row, err := q.GetLatestDocument(ctx, sceneID)
			if database.IsNotFound(err) {
				return ErrNotFound.New("scene %q has no document", scene)
			}
			if err != nil {
				return fmt.Errorf("getting document of %q: %w", scene, err)
			}
			doc = docFromRow(row)
			return nil
		}
		row, err := q.GetDocumentByGeneration(ctx, sqlc.GetDocumentByGenerationParams{FkSceneID: sceneID, Generation: generation})
		if database.IsNotFound(err) {
			return ErrNotFound.New("document generation %d of scene %q", generation, scene)
		}
		if err != nil {
			return fmt.Errorf("getting document generation %d of %q: %w", generation, scene, err)
		}
		doc = docFromRow(sqlc.GetLatestDocumentRow(row))
		return nil
	})
	return doc, err
}

// GetDocHistory returns every document generation of scene, newest first.
func (v *VFS) GetDocHistory(ctx context.Context, scene string) ([]DocProps, error) {
	var docs []DocProps
	err := v.view(ctx, func(ctx context.Context, q *sqlc.Queries) error {
		sceneID, err := lookupSceneID(ctx, q, scene)
		if err != nil {
			return err
		}
		rows, err := q.GetDocumentHistory(ctx, sceneID)
		if err != nil {
			return fmt.Errorf("getting document history of %q: %w", scene, err)
		}
		docs = make([]DocProps, 0, len(rows))
		for _, row := range rows {
			docs = append(docs, docFromRow(sqlc.GetLatestDocumentRow(row)))
		}
		return nil
	})
	return docs, err
}
