package vfs_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ecorpus-go/internal/testutil"
	"ecorpus-go/internal/vfs"
)

func TestClean(t *testing.T) {
	ctx := context.Background()
	tv := testutil.NewTestVFS(t)
	newScene(t, tv, "chair")

	kept := writeFile(t, tv, "chair", "kept.txt", "kept")
	lost := writeFile(t, tv, "chair", "lost.txt", "lost")
	if _, err := tv.CreateFolder(ctx, vfs.FileParams{Scene: "chair", Name: "models"}); err != nil {
		t.Fatal(err)
	}
	loose, err := tv.Objects.Put(ctx, strings.NewReader("nobody references me"))
	if err != nil {
		t.Fatal(err)
	}
	if err := tv.Objects.Remove(ctx, lost.Hash); err != nil {
		t.Fatal(err)
	}

	report, err := tv.Clean(ctx)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	want := vfs.CleanReport{Removed: []string{loose.Hash}, Missing: []string{lost.Hash}}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report (-want +got):\n%s", diff)
	}

	stored, err := tv.Objects.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{kept.Hash}, stored); diff != "" {
		t.Errorf("objects after clean (-want +got):\n%s", diff)
	}
}

func TestClean_tombstonesKeepHistory(t *testing.T) {
	ctx := context.Background()
	tv := testutil.NewTestVFS(t)
	newScene(t, tv, "chair")
	f := writeFile(t, tv, "chair", "a.txt", "a")
	if _, err := tv.RemoveFile(ctx, vfs.FileParams{Scene: "chair", Name: "a.txt"}); err != nil {
		t.Fatal(err)
	}

	report, err := tv.Clean(ctx)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if len(report.Removed) != 0 {
		t.Errorf("Clean() removed %v; an old generation still references it", report.Removed)
	}
	if ok, _ := tv.Objects.Exists(ctx, f.Hash); !ok {
		t.Error("object of a deleted file was collected")
	}

	t.Run("collected once the scene is gone", func(t *testing.T) {
		if err := tv.RemoveScene(ctx, "chair"); err != nil {
			t.Fatal(err)
		}
		report, err := tv.Clean(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{f.Hash}, report.Removed); diff != "" {
			t.Errorf("removed (-want +got):\n%s", diff)
		}
	})
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	tv := testutil.NewTestVFS(t)
	newScene(t, tv, "chair")
	newScene(t, tv, "table")
	if _, err := tv.AddUser(ctx, vfs.AddUserParams{Username: "alice"}); err != nil {
		t.Fatal(err)
	}

	writeFile(t, tv, "chair", "a.txt", "12345")
	writeFile(t, tv, "table", "b.txt", "12345")
	writeFile(t, tv, "chair", "a.txt", "123")
	if _, err := tv.CreateFolder(ctx, vfs.FileParams{Scene: "chair", Name: "models"}); err != nil {
		t.Fatal(err)
	}
	if _, err := tv.RemoveFile(ctx, vfs.FileParams{Scene: "table", Name: "b.txt"}); err != nil {
		t.Fatal(err)
	}
	writeDoc(t, tv, "chair", `{}`)

	got, err := tv.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := vfs.Stats{
		Scenes:      2,
		Files:       5,
		Documents:   1,
		Users:       1,
		Objects:     2,
		ObjectBytes: 8,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Stats() (-want +got):\n%s", diff)
	}
}
