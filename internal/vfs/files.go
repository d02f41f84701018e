package vfs

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"ecorpus-go/internal/database"
	"ecorpus-go/internal/database/sqlc"
)

// FileProps describes one generation of a file.
type FileProps struct {
	ID   int64
	Name string
	Mime string
	// Hash is empty on a tombstone.
	Hash       string
	Size       int64
	Generation int64
	// Ctime is when the name was first created; Mtime is when this generation
	// was written.
	Ctime    time.Time
	Mtime    time.Time
	AuthorID int64
	Author   string
}

func (f FileProps) IsDeleted() bool { return f.Hash == "" }

func (f FileProps) IsFolder() bool { return f.Mime == FolderMime }

// FileParams locates a file and carries the metadata of a new generation.
type FileParams struct {
	Scene    string
	Name     string
	Mime     string // guessed from the name when empty
	AuthorID int64
}

// Content is the body of a generation. A nil *Content makes a tombstone.
type Content struct {
	Hash string
	Size int64
}

// FileRef is handed to a ContentFactory once the generation row exists.
type FileRef struct {
	ID         int64
	Name       string
	Generation int64
}

// ContentFactory materializes the content of a freshly allocated generation.
type ContentFactory func(ctx context.Context, ref FileRef) (*Content, error)

// StaticContent returns a factory that attaches c unchanged.
func StaticContent(c *Content) ContentFactory {
	return func(context.Context, FileRef) (*Content, error) { return c, nil }
}

// ListFilesOptions selects which latest generations ListFiles returns.
type ListFilesOptions struct {
	IncludeDeleted bool
	IncludeFolders bool
}

type CopyFileParams struct {
	Scene string
	Name  string
	// Generation picks the source version; Hash picks the newest generation
	// carrying that content. Both zero means the latest generation.
	Generation int64
	Hash       string
	// DestScene must be empty or equal to Scene.
	DestScene string
	DestName  string
	AuthorID  int64
}

// cleanName normalizes a file name to a relative slash-separated path.
func cleanName(name string) (string, error) {
	trimmed := strings.Trim(name, "/")
	if trimmed == "" {
		return "", ErrBadRequest.New("file name is required")
	}
	cleaned := path.Clean(trimmed)
	if cleaned != trimmed || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrBadRequest.New("invalid file name %q", name)
	}
	return cleaned, nil
}

// guessMime returns the media type registered for the extension of name.
func guessMime(name string) string {
	t := mime.TypeByExtension(path.Ext(name))
	if t == "" {
		return defaultMime
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}

func nullHash(c *Content) (sql.NullString, int64) {
	if c == nil {
		return sql.NullString{}, 0
	}
	return sql.NullString{String: c.Hash, Valid: true}, c.Size
}

func fileFromRow(row sqlc.GetLatestFileRow) FileProps {
	return FileProps{
		ID:         row.FileID,
		Name:       row.Name,
		Mime:       row.Mime,
		Hash:       row.Hash.String,
		Size:       row.Size,
		Generation: row.Generation,
		Ctime:      fromMillis(row.Ctime),
		Mtime:      fromMillis(row.Mtime),
		AuthorID:   row.FkAuthorID,
		Author:     row.Author,
	}
}

// latestFile returns the authoritative generation of name, tombstone or not.
func latestFile(ctx context.Context, q *sqlc.Queries, sceneID int64, name string) (FileProps, bool, error) {
	row, err := q.GetLatestFile(ctx, sqlc.GetLatestFileParams{FkSceneID: sceneID, Name: name})
	if database.IsNotFound(err) {
		return FileProps{}, false, nil
	}
	if err != nil {
		return FileProps{}, false, fmt.Errorf("getting file %q: %w", name, err)
	}
	return fileFromRow(row), true, nil
}

// liveChildren returns the live entries below folder.
func liveChildren(ctx context.Context, q *sqlc.Queries, sceneID int64, folder string) ([]FileProps, error) {
	rows, err := q.ListFiles(ctx, sqlc.ListFilesParams{FkSceneID: sceneID, IncludeFolders: true, FolderMime: FolderMime})
	if err != nil {
		return nil, fmt.Errorf("listing children of %q: %w", folder, err)
	}
	var children []FileProps
	for _, row := range rows {
		if strings.HasPrefix(row.Name, folder+"/") {
			children = append(children, fileFromRow(sqlc.GetLatestFileRow(row)))
		}
	}
	return children, nil
}

// appendGeneration is the single write primitive of the file catalog: it
// allocates generation max+1 of name, lets factory produce the content and
// attaches it. Every rename, copy, delete and restore goes through it.
func (v *VFS) appendGeneration(ctx context.Context, tx *database.Tx, sceneID int64, name, mimeType string, author int64, factory ContentFactory) (FileProps, error) {
	q := tx.Queries()
	row, err := q.InsertFileGeneration(ctx, sqlc.InsertFileGenerationParams{
		Name:       name,
		Mime:       mimeType,
		Ctime:      v.now(),
		FkSceneID:  sceneID,
		FkAuthorID: author,
	})
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return FileProps{}, ErrNotFound.New("scene %d", sceneID)
		}
		return FileProps{}, fmt.Errorf("inserting generation of %q: %w", name, err)
	}

	content, err := factory(ctx, FileRef{ID: row.FileID, Name: name, Generation: row.Generation})
	if err != nil {
		return FileProps{}, err
	}
	if content != nil {
		hash, size := nullHash(content)
		if _, err := q.AttachFileContent(ctx, sqlc.AttachFileContentParams{Hash: hash, Size: size, FileID: row.FileID}); err != nil {
			return FileProps{}, fmt.Errorf("attaching content to %q: %w", name, err)
		}
	}

	got, err := q.GetFileByGeneration(ctx, sqlc.GetFileByGenerationParams{FkSceneID: sceneID, Name: name, Generation: row.Generation})
	if err != nil {
		return FileProps{}, fmt.Errorf("reading back %q generation %d: %w", name, row.Generation, err)
	}
	return fileFromRow(sqlc.GetLatestFileRow(got)), nil
}

// CreateFile appends a generation whose content comes from factory. The
// factory runs inside the transaction, after the row is allocated. A live
// folder cannot be overwritten.
func (v *VFS) CreateFile(ctx context.Context, p FileParams, factory ContentFactory) (FileProps, error) {
	name, err := cleanName(p.Name)
	if err != nil {
		return FileProps{}, err
	}
	mimeType := p.Mime
	if mimeType == "" {
		mimeType = guessMime(name)
	}

	var props FileProps
	err = v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		q := tx.Queries()
		sceneID, err := lookupSceneID(ctx, q, p.Scene)
		if err != nil {
			return err
		}
		existing, ok, err := latestFile(ctx, q, sceneID, name)
		if err != nil {
			return err
		}
		if ok && existing.IsFolder() && !existing.IsDeleted() {
			return ErrConflict.New("%q is a folder", name)
		}
		props, err = v.appendGeneration(ctx, tx, sceneID, name, mimeType, p.AuthorID, factory)
		return err
	})
	return props, err
}

// WriteFile stores r and records it as the next generation of the file. The
// object is written before the catalog transaction; if the transaction fails
// the object is left for Clean.
func (v *VFS) WriteFile(ctx context.Context, r io.Reader, p FileParams) (FileProps, error) {
	name, err := cleanName(p.Name)
	if err != nil {
		return FileProps{}, err
	}
	if name == DocName {
		return FileProps{}, ErrBadRequest.New("%s is written through WriteDoc", DocName)
	}

	obj, err := v.objects.Put(ctx, r)
	if err != nil {
		return FileProps{}, fmt.Errorf("storing %q: %w", name, err)
	}

	p.Name = name
	props, err := v.CreateFile(ctx, p, StaticContent(&Content{Hash: obj.Hash, Size: obj.Size}))
	if err != nil {
		return FileProps{}, err
	}
	v.logger.Debug("file written", "scene", p.Scene, "name", name, "generation", props.Generation, "hash", obj.Hash)
	return props, nil
}

// GetFile returns the latest generation of a live file.
func (v *VFS) GetFile(ctx context.Context, scene, name string) (FileProps, error) {
	name, err := cleanName(name)
	if err != nil {
		return FileProps{}, err
	}
	var props FileProps
	err = v.view(ctx, func(ctx context.Context, q *sqlc.Queries) error {
		sceneID, err := lookupSceneID(ctx, q, scene)
		if err != nil {
			return err
		}
		f, ok, err := latestFile(ctx, q, sceneID, name)
		if err != nil {
			return err
		}
		if !ok || f.IsDeleted() {
			return ErrNotFound.New("file %q in scene %q", name, scene)
		}
		props = f
		return nil
	})
	return props, err
}

// GetFileGeneration returns one generation of a file. Tombstones are
// returned as is.
func (v *VFS) GetFileGeneration(ctx context.Context, scene, name string, generation int64) (FileProps, error) {
	name, err := cleanName(name)
	if err != nil {
		return FileProps{}, err
	}
	var props FileProps
	err = v.view(ctx, func(ctx context.Context, q *sqlc.Queries) error {
		sceneID, err := lookupSceneID(ctx, q, scene)
		if err != nil {
			return err
		}
		row, err := q.GetFileByGeneration(ctx, sqlc.GetFileByGenerationParams{FkSceneID: sceneID, Name: name, Generation: generation})
		if database.IsNotFound(err) {
			return ErrNotFound.New("generation %d of %q in scene %q", generation, name, scene)
		}
		if err != nil {
			return fmt.Errorf("getting %q generation %d: %w", name, generation, err)
		}
		props = fileFromRow(sqlc.GetLatestFileRow(row))
		return nil
	})
	return props, err
}

// OpenFile returns the content of a generation (0 for the latest). The caller
// must close the reader.
func (v *VFS) OpenFile(ctx context.Context, scene, name string, generation int64) (io.ReadCloser, FileProps, error) {
	var (
		props FileProps
		err   error
	)
	if generation == 0 {
		props, err = v.GetFile(ctx, scene, name)
	} else {
		props, err = v.GetFileGeneration(ctx, scene, name, generation)
	}
	if err != nil {
		return nil, FileProps{}, err
	}
	if props.IsDeleted() {
		return nil, FileProps{}, ErrNotFound.New("%q generation %d is deleted", props.Name, props.Generation)
	}
	if props.IsFolder() {
		return nil, FileProps{}, ErrBadRequest.New("%q is a folder", props.Name)
	}

	rc, err := v.objects.Open(ctx, props.Hash)
	if err != nil {
		return nil, FileProps{}, err
	}
	return rc, props, nil
}

// RemoveFile appends a tombstone to a live file. Removing a folder also
// removes everything below it.
func (v *VFS) RemoveFile(ctx context.Context, p FileParams) (FileProps, error) {
	name, err := cleanName(p.Name)
	if err != nil {
		return FileProps{}, err
	}

	var props FileProps
	err = v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		q := tx.Queries()
		sceneID, err := lookupSceneID(ctx, q, p.Scene)
		if err != nil {
			return err
		}
		current, ok, err := latestFile(ctx, q, sceneID, name)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound.New("file %q in scene %q", name, p.Scene)
		}
		if current.IsDeleted() {
			return ErrConflict.New("file %q is already deleted", name)
		}

		if current.IsFolder() {
			children, err := liveChildren(ctx, q, sceneID, name)
			if err != nil {
				return err
			}
			for _, child := range children {
				if _, err := v.appendGeneration(ctx, tx, sceneID, child.Name, child.Mime, p.AuthorID, StaticContent(nil)); err != nil {
					return err
				}
			}
		}

		props, err = v.appendGeneration(ctx, tx, sceneID, name, current.Mime, p.AuthorID, StaticContent(nil))
		return err
	})
	if err != nil {
		return FileProps{}, err
	}
	v.logger.Debug("file removed", "scene", p.Scene, "name", name, "generation", props.Generation)
	return props, nil
}

// RenameFile moves a live file to newName: a tombstone is appended under the
// old name and a generation carrying the same content under the new one.
// Renaming a folder moves its children along.
func (v *VFS) RenameFile(ctx context.Context, p FileParams, newName string) (FileProps, error) {
	name, err := cleanName(p.Name)
	if err != nil {
		return FileProps{}, err
	}
	dest, err := cleanName(newName)
	if err != nil {
		return FileProps{}, err
	}
	if name == dest {
		return FileProps{}, ErrBadRequest.New("cannot rename %q onto itself", name)
	}
	if name == DocName || dest == DocName {
		return FileProps{}, ErrBadRequest.New("%s cannot be renamed", DocName)
	}
	if strings.HasPrefix(dest, name+"/") {
		return FileProps{}, ErrBadRequest.New("cannot move %q inside itself", name)
	}

	var props FileProps
	err = v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		q := tx.Queries()
		sceneID, err := lookupSceneID(ctx, q, p.Scene)
		if err != nil {
			return err
		}
		src, ok, err := latestFile(ctx, q, sceneID, name)
		if err != nil {
			return err
		}
		if !ok || src.IsDeleted() {
			return ErrNotFound.New("file %q in scene %q", name, p.Scene)
		}

		moves := []FileProps{src}
		if src.IsFolder() {
			children, err := liveChildren(ctx, q, sceneID, name)
			if err != nil {
				return err
			}
			moves = append(moves, children...)
		}

		for i, m := range moves {
			target := dest + strings.TrimPrefix(m.Name, name)
			existing, ok, err := latestFile(ctx, q, sceneID, target)
			if err != nil {
				return err
			}
			if ok && !existing.IsDeleted() {
				return ErrConflict.New("destination %q already exists", target)
			}

			if _, err := v.appendGeneration(ctx, tx, sceneID, m.Name, m.Mime, p.AuthorID, StaticContent(nil)); err != nil {
				return err
			}
			moved, err := v.appendGeneration(ctx, tx, sceneID, target, m.Mime, p.AuthorID, StaticContent(&Content{Hash: m.Hash, Size: m.Size}))
			if err != nil {
				return err
			}
			if i == 0 {
				props = moved
			}
		}
		return nil
	})
	if err != nil {
		return FileProps{}, err
	}
	v.logger.Debug("file renamed", "scene", p.Scene, "name", name, "to", dest)
	return props, nil
}

// CopyFile appends a generation under DestName carrying the content of a
// past version of Name. The source history is left untouched. Copying onto
// the source name restores that version; copying onto another live name is a
// conflict.
func (v *VFS) CopyFile(ctx context.Context, p CopyFileParams) (FileProps, error) {
	if p.DestScene != "" && p.DestScene != p.Scene {
		return FileProps{}, ErrBadRequest.New("cannot copy across scenes")
	}
	name, err := cleanName(p.Name)
	if err != nil {
		return FileProps{}, err
	}
	dest := name
	if p.DestName != "" {
		if dest, err = cleanName(p.DestName); err != nil {
			return FileProps{}, err
		}
	}
	if dest == DocName {
		return FileProps{}, ErrBadRequest.New("%s is written through WriteDoc", DocName)
	}

	var props FileProps
	err = v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		q := tx.Queries()
		sceneID, err := lookupSceneID(ctx, q, p.Scene)
		if err != nil {
			return err
		}
		src, err := sourceVersion(ctx, q, sceneID, name, p.Generation, p.Hash)
		if err != nil {
			return err
		}
		if src.IsDeleted() {
			return ErrBadRequest.New("%q generation %d is a tombstone", name, src.Generation)
		}

		if dest != name {
			existing, ok, err := latestFile(ctx, q, sceneID, dest)
			if err != nil {
				return err
			}
			if ok && !existing.IsDeleted() {
				return ErrConflict.New("destination %q already exists", dest)
			}
		}

		props, err = v.appendGeneration(ctx, tx, sceneID, dest, src.Mime, p.AuthorID, StaticContent(&Content{Hash: src.Hash, Size: src.Size}))
		return err
	})
	if err != nil {
		return FileProps{}, err
	}
	v.logger.Debug("file copied", "scene", p.Scene, "name", name, "to", dest, "generation", props.Generation)
	return props, nil
}

// sourceVersion picks a version by generation, by hash or the latest one.
func sourceVersion(ctx context.Context, q *sqlc.Queries, sceneID int64, name string, generation int64, hash string) (FileProps, error) {
	switch {
	case generation != 0:
		row, err := q.GetFileByGeneration(ctx, sqlc.GetFileByGenerationParams{FkSceneID: sceneID, Name: name, Generation: generation})
		if database.IsNotFound(err) {
			return FileProps{}, ErrNotFound.New("generation %d of %q", generation, name)
		}
		if err != nil {
			return FileProps{}, fmt.Errorf("getting %q generation %d: %w", name, generation, err)
		}
		return fileFromRow(sqlc.GetLatestFileRow(row)), nil
	case hash != "":
		row, err := q.GetFileByHash(ctx, sqlc.GetFileByHashParams{FkSceneID: sceneID, Name: name, Hash: sql.NullString{String: hash, Valid: true}})
		if database.IsNotFound(err) {
			return FileProps{}, ErrNotFound.New("version %s of %q", hash, name)
		}
		if err != nil {
			return FileProps{}, fmt.Errorf("getting %q by hash: %w", name, err)
		}
		return fileFromRow(sqlc.GetLatestFileRow(row)), nil
	default:
		f, ok, err := latestFile(ctx, q, sceneID, name)
		if err != nil {
			return FileProps{}, err
		}
		if !ok {
			return FileProps{}, ErrNotFound.New("file %q", name)
		}
		return f, nil
	}
}

// ListFiles returns the latest generation of every name in the scene,
// newest first.
func (v *VFS) ListFiles(ctx context.Context, scene string, opts ListFilesOptions) ([]FileProps, error) {
	var files []FileProps
	err := v.view(ctx, func(ctx context.Context, q *sqlc.Queries) error {
		sceneID, err := lookupSceneID(ctx, q, scene)
		if err != nil {
			return err
		}
		rows, err := q.ListFiles(ctx, sqlc.ListFilesParams{
			FkSceneID:      sceneID,
			IncludeDeleted: opts.IncludeDeleted,
			IncludeFolders: opts.IncludeFolders,
			FolderMime:     FolderMime,
		})
		if err != nil {
			return fmt.Errorf("listing files of scene %q: %w", scene, err)
		}
		files = make([]FileProps, 0, len(rows))
		for _, row := range rows {
			files = append(files, fileFromRow(sqlc.GetLatestFileRow(row)))
		}
		return nil
	})
	return files, err
}

// GetFileHistory returns every generation of name, newest first.
func (v *VFS) GetFileHistory(ctx context.Context, scene, name string) ([]FileProps, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	var history []FileProps
	err = v.view(ctx, func(ctx context.Context, q *sqlc.Queries) error {
		sceneID, err := lookupSceneID(ctx, q, scene)
		if err != nil {
			return err
		}
		rows, err := q.GetFileHistory(ctx, sqlc.GetFileHistoryParams{FkSceneID: sceneID, Name: name})
		if err != nil {
			return fmt.Errorf("getting history of %q: %w", name, err)
		}
		if len(rows) == 0 {
			return ErrNotFound.New("file %q in scene %q", name, scene)
		}
		for _, row := range rows {
			history = append(history, fileFromRow(sqlc.GetLatestFileRow(row)))
		}
		return nil
	})
	return history, err
}

// CreateFolder records a folder entry. It fails if a live entry already holds
// the name.
func (v *VFS) CreateFolder(ctx context.Context, p FileParams) (FileProps, error) {
	name, err := cleanName(p.Name)
	if err != nil {
		return FileProps{}, err
	}

	var props FileProps
	err = v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		q := tx.Queries()
		sceneID, err := lookupSceneID(ctx, q, p.Scene)
		if err != nil {
			return err
		}
		existing, ok, err := latestFile(ctx, q, sceneID, name)
		if err != nil {
			return err
		}
		if ok && !existing.IsDeleted() {
			return ErrConflict.New("%q already exists", name)
		}
		props, err = v.appendGeneration(ctx, tx, sceneID, name, FolderMime, p.AuthorID, StaticContent(&Content{Hash: folderHash}))
		return err
	})
	return props, err
}
