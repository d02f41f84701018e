package vfs_test

import (
	"context"
	"testing"

	"ecorpus-go/internal/testutil"
	"ecorpus-go/internal/vfs"
)

func TestWriteDoc(t *testing.T) {
	ctx := context.Background()
	tv := testutil.NewTestVFS(t)
	newScene(t, tv, "chair")

	if _, err := tv.GetDoc(ctx, "chair", 0); !vfs.ErrNotFound.Has(err) {
		t.Errorf("GetDoc() on empty scene error = %v, want not found", err)
	}
	d1 := writeDoc(t, tv, "chair", `{"v":1}`)
	d2 := writeDoc(t, tv, "chair", `{"v":2}`)
	if d1.Generation != 1 || d2.Generation != 2 {
		t.Errorf("generations = %d, %d", d1.Generation, d2.Generation)
	}

	latest, err := tv.GetDoc(ctx, "chair", 0)
	if err != nil || latest.Data != `{"v":2}` {
		t.Errorf("GetDoc(latest) = %+v, %v", latest, err)
	}
	first, err := tv.GetDoc(ctx, "chair", 1)
	if err != nil || first.Data != `{"v":1}` {
		t.Errorf("GetDoc(1) = %+v, %v", first, err)
	}
	if _, err := tv.GetDoc(ctx, "chair", 3); !vfs.ErrNotFound.Has(err) {
		t.Errorf("GetDoc(3) error = %v, want not found", err)
	}

	history, err := tv.GetDocHistory(ctx, "chair")
	if err != nil || len(history) != 2 || history[0].Generation != 2 {
		t.Errorf("GetDocHistory() = %+v, %v", history, err)
	}

	if _, err := tv.WriteDoc(ctx, "chair", []byte(`{"v":`), 0); !vfs.ErrBadRequest.Has(err) {
		t.Errorf("invalid JSON error = %v, want bad request", err)
	}
	if _, err := tv.WriteDoc(ctx, "missing", []byte(`{}`), 0); !vfs.ErrNotFound.Has(err) {
		t.Errorf("missing scene error = %v, want not found", err)
	}
}

func TestRestoreScene(t *testing.T) {
	ctx := context.Background()

	// setup writes D1, F1, D2, F2 in that order.
	setup := func(t *testing.T) (*testutil.TestVFS, vfs.DocProps, vfs.FileProps) {
		tv := testutil.NewTestVFS(t)
		newScene(t, tv, "chair")
		d1 := writeDoc(t, tv, "chair", `{"v":1}`)
		f1 := writeFile(t, tv, "chair", "model.glb", "first")
		writeDoc(t, tv, "chair", `{"v":2}`)
		writeFile(t, tv, "chair", "model.glb", "second")
		return tv, d1, f1
	}

	t.Run("to the first document", func(t *testing.T) {
		tv, d1, _ := setup(t)
		n, err := tv.RestoreScene(ctx, "chair", vfs.HistoryPoint{Type: vfs.ItemDoc, ID: d1.ID}, 0)
		if err != nil {
			t.Fatalf("RestoreScene() error = %v", err)
		}
		if n != 2 {
			t.Errorf("restored %d items, want 2", n)
		}

		doc, err := tv.GetDoc(ctx, "chair", 0)
		if err != nil || doc.Data != `{"v":1}` || doc.Generation != 3 {
			t.Errorf("document = %+v, %v", doc, err)
		}
		if _, err := tv.GetFile(ctx, "chair", "model.glb"); !vfs.ErrNotFound.Has(err) {
			t.Errorf("file created after the point is still live: %v", err)
		}
		history, err := tv.GetFileHistory(ctx, "chair", "model.glb")
		if err != nil || len(history) != 3 {
			t.Errorf("file history = %d entries, %v; want old generations kept", len(history), err)
		}
	})

	t.Run("to the first file", func(t *testing.T) {
		tv, _, f1 := setup(t)
		if _, err := tv.RestoreScene(ctx, "chair", vfs.HistoryPoint{Type: vfs.ItemFile, ID: f1.ID}, 0); err != nil {
			t.Fatalf("RestoreScene() error = %v", err)
		}
		if got := readFile(t, tv, "chair", "model.glb", 0); got != "first" {
			t.Errorf("model.glb = %q, want first", got)
		}
		doc, err := tv.GetDoc(ctx, "chair", 0)
		if err != nil || doc.Data != `{"v":1}` {
			t.Errorf("document = %+v, %v", doc, err)
		}
	})

	t.Run("point without a document", func(t *testing.T) {
		tv := testutil.NewTestVFS(t)
		newScene(t, tv, "chair")
		f1 := writeFile(t, tv, "chair", "model.glb", "first")
		writeDoc(t, tv, "chair", `{"v":1}`)

		_, err := tv.RestoreScene(ctx, "chair", vfs.HistoryPoint{Type: vfs.ItemFile, ID: f1.ID}, 0)
		if !vfs.ErrBadRequest.Has(err) {
			t.Fatalf("RestoreScene() error = %v, want bad request", err)
		}
		doc, err := tv.GetDoc(ctx, "chair", 0)
		if err != nil || doc.Generation != 1 {
			t.Errorf("failed restore changed the document: %+v, %v", doc, err)
		}
	})

	t.Run("deleted file comes back", func(t *testing.T) {
		tv, _, f1 := setup(t)
		if _, err := tv.RemoveFile(ctx, vfs.FileParams{Scene: "chair", Name: "model.glb"}); err != nil {
			t.Fatal(err)
		}
		if _, err := tv.RestoreScene(ctx, "chair", vfs.HistoryPoint{Type: vfs.ItemFile, ID: f1.ID}, 0); err != nil {
			t.Fatalf("RestoreScene() error = %v", err)
		}
		if got := readFile(t, tv, "chair", "model.glb", 0); got != "first" {
			t.Errorf("model.glb = %q, want first", got)
		}
	})

	t.Run("unknown point", func(t *testing.T) {
		tv, _, _ := setup(t)
		_, err := tv.RestoreScene(ctx, "chair", vfs.HistoryPoint{Type: vfs.ItemDoc, ID: 9999}, 0)
		if !vfs.ErrNotFound.Has(err) {
			t.Errorf("RestoreScene() error = %v, want not found", err)
		}
	})
}
