package vfs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"ecorpus-go/internal/database"
	"ecorpus-go/internal/database/sqlc"
	"ecorpus-go/internal/zipstream"
)

// ExportScene writes the latest state of scene to w as a ZIP archive. Entries
// are rooted at "<scene>/": folders become directory entries and the document
// is written as scene.svx.json. The listing and the document are read in one
// snapshot; file content is then streamed from the object store, whose blobs
// never change.
func (v *VFS) ExportScene(ctx context.Context, scene string, w io.Writer) error {
	var (
		root  string
		files []FileProps
		doc   *DocProps
	)
	err := v.view(ctx, func(ctx context.Context, q *sqlc.Queries) error {
		s, err := lookupScene(ctx, q, scene)
		if err != nil {
			return err
		}
		root = s.SceneName

		rows, err := q.ListFiles(ctx, sqlc.ListFilesParams{FkSceneID: s.SceneID, IncludeFolders: true, FolderMime: FolderMime})
		if err != nil {
			return fmt.Errorf("listing files of scene %q: %w", scene, err)
		}
		files = make([]FileProps, 0, len(rows))
		for _, row := range rows {
			files = append(files, fileFromRow(sqlc.GetLatestFileRow(row)))
		}

		row, err := q.GetLatestDocument(ctx, s.SceneID)
		if database.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("getting document of %q: %w", scene, err)
		}
		d := docFromRow(row)
		doc = &d
		return nil
	})
	if err != nil {
		return err
	}

	zw := zipstream.NewWriter(w)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := v.exportFile(ctx, zw, root, f); err != nil {
			return err
		}
	}
	if doc != nil {
		if err := zw.WriteEntry(zipstream.Entry{
			Name:    path.Join(root, DocName),
			ModTime: doc.Ctime,
			Body:    strings.NewReader(doc.Data),
		}); err != nil {
			return fmt.Errorf("writing document: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	v.logger.Info("scene exported", "scene", scene, "files", len(files))
	return nil
}

func (v *VFS) exportFile(ctx context.Context, zw *zipstream.Writer, root string, f FileProps) error {
	name := path.Join(root, f.Name)
	if f.IsFolder() {
		if err := zw.WriteEntry(zipstream.Entry{Name: name, ModTime: f.Mtime, IsDir: true}); err != nil {
			return fmt.Errorf("writing folder %q: %w", f.Name, err)
		}
		return nil
	}

	rc, err := v.objects.Open(ctx, f.Hash)
	if err != nil {
		return fmt.Errorf("opening %q: %w", f.Name, err)
	}
	defer rc.Close()

	if err := zw.WriteEntry(zipstream.Entry{Name: name, ModTime: f.Mtime, Body: rc}); err != nil {
		return fmt.Errorf("writing %q: %w", f.Name, err)
	}
	return nil
}

// ImportScene writes every entry of a ZIP archive into scene, creating the
// scene when it does not exist. Archives made by ExportScene keep everything
// under one root folder, which is dropped; entries of any other archive are
// taken as scene-relative. Every name is validated before the scene is
// touched. Folders that already exist are kept. Returns the number of
// entries imported.
func (v *VFS) ImportScene(ctx context.Context, scene string, r io.ReaderAt, size int64, author int64) (int, error) {
	zr, err := zipstream.NewReader(r, size)
	if err != nil {
		return 0, ErrBadRequest.Wrap(err)
	}

	root := archiveRoot(zr.File, scene)
	names := make([]string, len(zr.File))
	for i, f := range zr.File {
		name, ok := archiveName(f.Name, root)
		if !ok {
			continue
		}
		if names[i], err = cleanName(name); err != nil {
			return 0, err
		}
	}

	if _, err := v.GetScene(ctx, scene); ErrNotFound.Has(err) {
		if _, err := v.CreateScene(ctx, scene, author); err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	imported := 0
	for i, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return imported, err
		}
		if names[i] == "" {
			continue
		}
		if err := v.importEntry(ctx, scene, names[i], f, author); err != nil {
			return imported, err
		}
		imported++
	}
	v.logger.Info("scene imported", "scene", scene, "root", root, "entries", imported)
	return imported, nil
}

// archiveRoot returns the folder every entry lives under when it looks like
// an exported scene: it is named after scene or holds the document. It
// returns "" for flat archives.
func archiveRoot(files []*zipstream.File, scene string) string {
	root := ""
	hasDoc := false
	for _, f := range files {
		first, rest, nested := strings.Cut(strings.Trim(f.Name, "/"), "/")
		if !nested && !f.IsDir() {
			return ""
		}
		if root == "" {
			root = first
		} else if first != root {
			return ""
		}
		if rest == DocName {
			hasDoc = true
		}
	}
	if root != scene && !hasDoc {
		return ""
	}
	return root
}

// archiveName maps an entry name to a file name below root. The root folder
// entry itself maps to nothing.
func archiveName(name, root string) (string, bool) {
	name = strings.Trim(name, "/")
	if root == "" {
		return name, name != ""
	}
	rest, ok := strings.CutPrefix(name, root+"/")
	return rest, ok && rest != ""
}

func (v *VFS) importEntry(ctx context.Context, scene, name string, f *zipstream.File, author int64) error {
	switch {
	case f.IsDir():
		_, err := v.CreateFolder(ctx, FileParams{Scene: scene, Name: name, AuthorID: author})
		if ErrConflict.Has(err) {
			return nil
		}
		return err
	case name == DocName:
		data, err := f.ReadAll()
		if err != nil {
			return ErrBadRequest.Wrap(err)
		}
		_, err = v.WriteDoc(ctx, scene, data, author)
		return err
	default:
		rc, err := f.Open()
		if err != nil {
			return ErrBadRequest.Wrap(err)
		}
		defer rc.Close()
		_, err = v.WriteFile(ctx, rc, FileParams{Scene: scene, Name: name, AuthorID: author})
		return err
	}
}
