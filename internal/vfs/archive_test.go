package vfs_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"maps"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ecorpus-go/internal/testutil"
	"ecorpus-go/internal/vfs"
)

func TestExportScene(t *testing.T) {
	ctx := context.Background()
	tv := testutil.NewTestVFS(t)
	newScene(t, tv, "chair")
	if _, err := tv.CreateFolder(ctx, vfs.FileParams{Scene: "chair", Name: "models"}); err != nil {
		t.Fatal(err)
	}
	writeFile(t, tv, "chair", "models/chair.glb", "glb bytes")
	writeFile(t, tv, "chair", "gone.txt", "x")
	if _, err := tv.RemoveFile(ctx, vfs.FileParams{Scene: "chair", Name: "gone.txt"}); err != nil {
		t.Fatal(err)
	}
	writeDoc(t, tv, "chair", `{"asset":{}}`)

	var buf bytes.Buffer
	if err := tv.ExportScene(ctx, "chair", &buf); err != nil {
		t.Fatalf("ExportScene() error = %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("archive/zip rejected the export: %v", err)
	}
	contents := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("reading %s: %v", f.Name, err)
		}
		contents[f.Name] = string(data)
	}
	want := map[string]string{
		"chair/models/":          "",
		"chair/models/chair.glb": "glb bytes",
		"chair/" + vfs.DocName:   `{"asset":{}}`,
	}
	if diff := cmp.Diff(want, contents); diff != "" {
		t.Errorf("archive entries (-want +got):\n%s", diff)
	}

	if err := tv.ExportScene(ctx, "missing", io.Discard); !vfs.ErrNotFound.Has(err) {
		t.Errorf("ExportScene(missing) error = %v, want not found", err)
	}
}

// openHookStore runs onOpen before the first Open.
type openHookStore struct {
	vfs.ObjectStore
	onOpen func()
}

func (s *openHookStore) Open(ctx context.Context, hash string) (io.ReadCloser, error) {
	if s.onOpen != nil {
		s.onOpen()
		s.onOpen = nil
	}
	return s.ObjectStore.Open(ctx, hash)
}

func TestExportScene_snapshot(t *testing.T) {
	ctx := context.Background()
	tv := testutil.NewTestVFS(t)
	newScene(t, tv, "chair")
	writeFile(t, tv, "chair", "chair.glb", "glb bytes")
	writeDoc(t, tv, "chair", `{"v":1}`)

	store := &openHookStore{ObjectStore: tv.Objects, onOpen: func() {
		writeDoc(t, tv, "chair", `{"v":2}`)
		writeFile(t, tv, "chair", "late.glb", "late")
	}}
	exporter := vfs.New(tv.DB, store, vfs.NewNopLogger(), tv.Clock, tv.IDs, vfs.Options{PublicScenes: true})

	var buf bytes.Buffer
	if err := exporter.ExportScene(ctx, "chair", &buf); err != nil {
		t.Fatalf("ExportScene() error = %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	contents := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		contents[f.Name] = string(data)
	}
	want := map[string]string{
		"chair/chair.glb":      "glb bytes",
		"chair/" + vfs.DocName: `{"v":1}`,
	}
	if diff := cmp.Diff(want, contents); diff != "" {
		t.Errorf("archive mixes states (-want +got):\n%s", diff)
	}
}

func TestImportScene_roundTrip(t *testing.T) {
	ctx := context.Background()
	tv := testutil.NewTestVFS(t)
	newScene(t, tv, "chair")
	if _, err := tv.CreateFolder(ctx, vfs.FileParams{Scene: "chair", Name: "models"}); err != nil {
		t.Fatal(err)
	}
	writeFile(t, tv, "chair", "models/chair.glb", "glb bytes")
	writeFile(t, tv, "chair", "empty.bin", "")
	writeDoc(t, tv, "chair", `{"asset":{}}`)

	var buf bytes.Buffer
	if err := tv.ExportScene(ctx, "chair", &buf); err != nil {
		t.Fatalf("ExportScene() error = %v", err)
	}

	n, err := tv.ImportScene(ctx, "copy", bytes.NewReader(buf.Bytes()), int64(buf.Len()), 0)
	if err != nil {
		t.Fatalf("ImportScene() error = %v", err)
	}
	if n != 4 {
		t.Errorf("imported %d entries, want 4", n)
	}

	listing := func(scene string) []string {
		files, err := tv.ListFiles(ctx, scene, vfs.ListFilesOptions{IncludeFolders: true})
		if err != nil {
			t.Fatalf("ListFiles(%s) error = %v", scene, err)
		}
		out := make([]string, 0, len(files))
		for _, f := range files {
			out = append(out, f.Name+"="+f.Hash)
		}
		slices.Sort(out)
		return out
	}
	if diff := cmp.Diff(listing("chair"), listing("copy")); diff != "" {
		t.Errorf("imported scene differs (-orig +copy):\n%s", diff)
	}
	doc, err := tv.GetDoc(ctx, "copy", 0)
	if err != nil || doc.Data != `{"asset":{}}` {
		t.Errorf("GetDoc() = %+v, %v", doc, err)
	}

	t.Run("into an existing scene", func(t *testing.T) {
		if _, err := tv.ImportScene(ctx, "copy", bytes.NewReader(buf.Bytes()), int64(buf.Len()), 0); err != nil {
			t.Fatalf("ImportScene() error = %v", err)
		}
		f, err := tv.GetFile(ctx, "copy", "models/chair.glb")
		if err != nil || f.Generation != 2 {
			t.Errorf("GetFile() = %+v, %v; want generation 2", f, err)
		}
	})
}

func TestImportScene_invalidArchive(t *testing.T) {
	ctx := context.Background()
	tv := testutil.NewTestVFS(t)
	data := []byte("this is not a zip archive")

	_, err := tv.ImportScene(ctx, "chair", bytes.NewReader(data), int64(len(data)), 0)
	if !vfs.ErrBadRequest.Has(err) {
		t.Fatalf("ImportScene() error = %v, want bad request", err)
	}
	if _, err := tv.GetScene(ctx, "chair"); !vfs.ErrNotFound.Has(err) {
		t.Errorf("scene created for a rejected archive: %v", err)
	}
}

// zipOf builds an archive with archive/zip. Names ending in "/" are folders.
func zipOf(t *testing.T, entries map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range slices.Sorted(maps.Keys(entries)) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
		if _, err := io.WriteString(w, entries[name]); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestImportScene_layouts(t *testing.T) {
	tests := []struct {
		name    string
		scene   string
		entries map[string]string
		want    []string
		wantDoc bool
	}{
		{
			name:    "flat archive",
			scene:   "flat",
			entries: map[string]string{"model.glb": "glb", vfs.DocName: "{}"},
			want:    []string{"model.glb"},
			wantDoc: true,
		},
		{
			name:    "flat archive with folders",
			scene:   "flat",
			entries: map[string]string{"models/": "", "models/a.glb": "a", "b.glb": "b"},
			want:    []string{"b.glb", "models", "models/a.glb"},
		},
		{
			name:    "root named after the scene",
			scene:   "chair",
			entries: map[string]string{"chair/": "", "chair/a.glb": "a"},
			want:    []string{"a.glb"},
		},
		{
			name:    "root holding the document",
			scene:   "copy",
			entries: map[string]string{"chair/a.glb": "a", "chair/" + vfs.DocName: "{}"},
			want:    []string{"a.glb"},
			wantDoc: true,
		},
		{
			name:    "single folder of another name is kept",
			scene:   "flat",
			entries: map[string]string{"models/a.glb": "a"},
			want:    []string{"models/a.glb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tv := testutil.NewTestVFS(t)
			r := zipOf(t, tt.entries)

			n, err := tv.ImportScene(ctx, tt.scene, r, r.Size(), 0)
			if err != nil {
				t.Fatalf("ImportScene() error = %v", err)
			}
			files, err := tv.ListFiles(ctx, tt.scene, vfs.ListFilesOptions{IncludeFolders: true})
			if err != nil {
				t.Fatal(err)
			}
			got := names(files)
			slices.Sort(got)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("imported files (-want +got):\n%s", diff)
			}
			wantN := len(tt.want)
			if tt.wantDoc {
				wantN++
			}
			if n != wantN {
				t.Errorf("imported %d entries, want %d", n, wantN)
			}
			if _, err := tv.GetDoc(ctx, tt.scene, 0); (err == nil) != tt.wantDoc {
				t.Errorf("GetDoc() error = %v, want document %v", err, tt.wantDoc)
			}
		})
	}
}

func TestImportScene_unsafeName(t *testing.T) {
	ctx := context.Background()
	tv := testutil.NewTestVFS(t)
	r := zipOf(t, map[string]string{"model.glb": "glb", "../escape.glb": "x"})

	if _, err := tv.ImportScene(ctx, "chair", r, r.Size(), 0); !vfs.ErrBadRequest.Has(err) {
		t.Fatalf("ImportScene() error = %v, want bad request", err)
	}
	if _, err := tv.GetScene(ctx, "chair"); !vfs.ErrNotFound.Has(err) {
		t.Errorf("scene created for a rejected archive: %v", err)
	}
}
