package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func entryNames(entries []Entry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			names = append(names, e.Name+"/")
		} else {
			names = append(names, e.Name)
		}
	}
	return names
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"scene.svx.json":      "{}",
		"models/chair.glb":    "glb",
		"models/chair.blend":  "blend",
		"articles/intro.html": "<p>hi</p>",
		"cache/tmp.bin":       "x",
		IgnoreFileName:        "*.blend\n",
	})

	entries, err := Walk(root, []string{"cache/"})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{
		"articles/",
		"articles/intro.html",
		"models/",
		"models/chair.glb",
		"scene.svx.json",
	}
	if diff := cmp.Diff(want, entryNames(entries)); diff != "" {
		t.Errorf("Walk() mismatch (-want +got):\n%s", diff)
	}

	for _, e := range entries {
		if e.Name == "models/chair.glb" && e.Size != 3 {
			t.Errorf("size of %s = %d, want 3", e.Name, e.Size)
		}
	}
}

func TestWalk_SkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a"})
	if err := os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	entries, err := Walk(root, nil)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if diff := cmp.Diff([]string{"a.txt"}, entryNames(entries)); diff != "" {
		t.Errorf("Walk() mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_RejectsFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a"})
	if _, err := Walk(filepath.Join(root, "a.txt"), nil); err == nil {
		t.Error("Walk() on a file should fail")
	}
	if _, err := Walk(filepath.Join(root, "missing"), nil); err == nil {
		t.Error("Walk() on a missing path should fail")
	}
}
