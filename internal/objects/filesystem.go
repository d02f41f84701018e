package objects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"ecorpus-go/internal/vfs"
)

// FileSystemStore keeps objects as plain files:
//
//	<root>/
//	  objects/
//	    <hash>      (immutable blobs, named by base64url SHA-256)
//	  uploads/
//	    <id>        (in-flight uploads, empty at rest)
type FileSystemStore struct {
	root       string
	objectsDir string
	uploadsDir string
	logger     vfs.Logger
}

// NewFileSystemStore creates a filesystem object store rooted at root.
func NewFileSystemStore(root string, logger vfs.Logger) (*FileSystemStore, error) {
	objectsDir := filepath.Join(root, "objects")
	uploadsDir := filepath.Join(root, "uploads")

	for _, dir := range []string{objectsDir, uploadsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", filepath.Base(dir), err)
		}
	}

	return &FileSystemStore{
		root:       root,
		objectsDir: objectsDir,
		uploadsDir: uploadsDir,
		logger:     logger,
	}, nil
}

// Put streams r into uploads/ while hashing it, then hard-links the finished
// file to objects/<hash>. An existing link means the content is already
// stored. The staging file is always removed.
func (s *FileSystemStore) Put(ctx context.Context, r io.Reader) (vfs.Object, error) {
	tmpPath := filepath.Join(s.uploadsDir, uploadName())
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return vfs.Object{}, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer s.removeUpload(tmpPath)

	h := newHash()
	cr := newCtxReader(ctx, r)
	defer cr.Close()
	size, err := io.Copy(io.MultiWriter(f, h), cr)
	if err != nil {
		f.Close()
		return vfs.Object{}, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return vfs.Object{}, fmt.Errorf("failed to sync upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return vfs.Object{}, fmt.Errorf("failed to close upload: %w", err)
	}

	obj := vfs.Object{Hash: encodeHash(h.Sum(nil)), Size: size}
	if err := os.Link(tmpPath, filepath.Join(s.objectsDir, obj.Hash)); err != nil && !errors.Is(err, fs.ErrExist) {
		return vfs.Object{}, fmt.Errorf("failed to link object %s: %w", obj.Hash, err)
	}
	return obj, nil
}

// removeUpload deletes a staging file. Failures are logged so they never mask
// the result of the upload itself.
func (s *FileSystemStore) removeUpload(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove upload file", "path", path, "error", err)
	}
}

// Open returns a reader over the object named hash.
func (s *FileSystemStore) Open(_ context.Context, hash string) (io.ReadCloser, error) {
	if !validHash(hash) {
		return nil, vfs.ErrBadRequest.New("invalid object hash %q", hash)
	}
	f, err := os.Open(filepath.Join(s.objectsDir, hash))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, vfs.ErrNotFound.New("object %s", hash)
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

// Exists reports whether objects/<hash> is present.
func (s *FileSystemStore) Exists(_ context.Context, hash string) (bool, error) {
	if !validHash(hash) {
		return false, nil
	}
	_, err := os.Stat(filepath.Join(s.objectsDir, hash))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object: %w", err)
}

// Remove deletes objects/<hash>.
func (s *FileSystemStore) Remove(_ context.Context, hash string) error {
	if !validHash(hash) {
		return vfs.ErrBadRequest.New("invalid object hash %q", hash)
	}
	if err := os.Remove(filepath.Join(s.objectsDir, hash)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

// List returns the names found in objects/. Entries that cannot be object
// names are skipped.
func (s *FileSystemStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.objectsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read objects directory: %w", err)
	}
	hashes := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !validHash(e.Name()) {
			continue
		}
		hashes = append(hashes, e.Name())
	}
	return hashes, nil
}

// ValidateSetup verifies that the store directories are accessible.
func (s *FileSystemStore) ValidateSetup() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("object store root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("object store root is not a directory: %s", s.root)
	}

	for _, dir := range []string{s.objectsDir, s.uploadsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("object store directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("object store path is not a directory: %s", dir)
		}
	}

	return nil
}

var _ vfs.ObjectStore = (*FileSystemStore)(nil)
