package objects

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ecorpus-go/internal/vfs"
)

// storeContract runs the behavior every ObjectStore must share.
func storeContract(t *testing.T, newStore func(t *testing.T) vfs.ObjectStore) {
	ctx := context.Background()

	t.Run("put then open", func(t *testing.T) {
		s := newStore(t)
		obj, err := s.Put(ctx, strings.NewReader("hello world"))
		if err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if obj.Hash != HashBytes([]byte("hello world")) {
			t.Errorf("Hash = %q, want %q", obj.Hash, HashBytes([]byte("hello world")))
		}
		if obj.Size != 11 {
			t.Errorf("Size = %d, want 11", obj.Size)
		}

		rc, err := s.Open(ctx, obj.Hash)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer rc.Close()
		got, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if string(got) != "hello world" {
			t.Errorf("content = %q, want %q", got, "hello world")
		}
	})

	t.Run("identical content is stored once", func(t *testing.T) {
		s := newStore(t)
		a, err := s.Put(ctx, strings.NewReader("same"))
		if err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		b, err := s.Put(ctx, strings.NewReader("same"))
		if err != nil {
			t.Fatalf("second Put() error = %v", err)
		}
		if a != b {
			t.Errorf("objects differ: %+v vs %+v", a, b)
		}
		hashes, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(hashes) != 1 {
			t.Errorf("List() = %v, want one object", hashes)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		s := newStore(t)
		obj, err := s.Put(ctx, bytes.NewReader(nil))
		if err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if obj.Size != 0 || obj.Hash != HashBytes(nil) {
			t.Errorf("Put(empty) = %+v", obj)
		}
	})

	t.Run("exists and remove", func(t *testing.T) {
		s := newStore(t)
		obj, err := s.Put(ctx, strings.NewReader("doomed"))
		if err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		ok, err := s.Exists(ctx, obj.Hash)
		if err != nil || !ok {
			t.Fatalf("Exists() = %v, %v; want true", ok, err)
		}
		if err := s.Remove(ctx, obj.Hash); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		ok, err = s.Exists(ctx, obj.Hash)
		if err != nil || ok {
			t.Errorf("Exists() after Remove = %v, %v; want false", ok, err)
		}
		if err := s.Remove(ctx, obj.Hash); err != nil {
			t.Errorf("second Remove() error = %v, want nil", err)
		}
	})

	t.Run("open missing object", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Open(ctx, HashBytes([]byte("never stored")))
		if !vfs.ErrNotFound.Has(err) {
			t.Errorf("Open() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("cancelled context aborts the upload", func(t *testing.T) {
		s := newStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Put(cctx, strings.NewReader("aborted"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Put() error = %v, want context.Canceled", err)
		}
		hashes, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(hashes) != 0 {
			t.Errorf("List() = %v after aborted upload, want empty", hashes)
		}
	})

	t.Run("cancel unblocks a stalled source", func(t *testing.T) {
		s := newStore(t)
		pr, pw := io.Pipe()
		t.Cleanup(func() { pw.Close() })
		go pw.Write([]byte("partial"))

		cctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			_, err := s.Put(cctx, pr)
			done <- err
		}()
		time.AfterFunc(20*time.Millisecond, cancel)

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Put() error = %v, want context.Canceled", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Put() still blocked after cancel")
		}
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) vfs.ObjectStore { return NewMemoryStore() })
}

func TestFileSystemStore(t *testing.T) {
	storeContract(t, func(t *testing.T) vfs.ObjectStore {
		s, err := NewFileSystemStore(t.TempDir(), vfs.NewNopLogger())
		if err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}
		return s
	})
}

func TestFileSystemStore_Layout(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFileSystemStore(root, vfs.NewNopLogger())
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	obj, err := s.Put(ctx, strings.NewReader("layout"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "objects", obj.Hash)); err != nil {
		t.Errorf("object file missing: %v", err)
	}
	uploads, err := os.ReadDir(filepath.Join(root, "uploads"))
	if err != nil {
		t.Fatalf("ReadDir(uploads) error = %v", err)
	}
	if len(uploads) != 0 {
		t.Errorf("uploads/ holds %d entries at rest, want 0", len(uploads))
	}
}

// failingReader returns some bytes, then an error.
type failingReader struct{ sent bool }

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.sent {
		f.sent = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("connection reset")
}

func TestFileSystemStore_FailedUploadLeavesNothing(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFileSystemStore(root, vfs.NewNopLogger())
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	if _, err := s.Put(ctx, &failingReader{}); err == nil {
		t.Fatal("Put() expected error from failing reader")
	}

	for _, dir := range []string{"objects", "uploads"} {
		entries, err := os.ReadDir(filepath.Join(root, dir))
		if err != nil {
			t.Fatalf("ReadDir(%s) error = %v", dir, err)
		}
		if len(entries) != 0 {
			t.Errorf("%s/ holds %d entries after failed upload, want 0", dir, len(entries))
		}
	}
}

func TestFileSystemStore_ConcurrentIdenticalUploads(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileSystemStore(t.TempDir(), vfs.NewNopLogger())
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Put(ctx, strings.NewReader(strings.Repeat("x", 4096)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Put() error = %v", err)
		}
	}

	hashes, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(hashes) != 1 {
		t.Errorf("List() = %v, want a single object", hashes)
	}
}

func TestFileSystemStore_RejectsInvalidHash(t *testing.T) {
	s, err := NewFileSystemStore(t.TempDir(), vfs.NewNopLogger())
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	for _, hash := range []string{"", "../../etc/passwd", "abc"} {
		if _, err := s.Open(context.Background(), hash); !vfs.ErrBadRequest.Has(err) {
			t.Errorf("Open(%q) error = %v, want ErrBadRequest", hash, err)
		}
	}
}
