package vfs_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"ecorpus-go/internal/testutil"
	"ecorpus-go/internal/vfs"
)

func newScene(t *testing.T, tv *testutil.TestVFS, name string) int64 {
	t.Helper()
	id, err := tv.CreateScene(context.Background(), name, 0)
	if err != nil {
		t.Fatalf("CreateScene(%q) error = %v", name, err)
	}
	return id
}

// writeFile advances the clock so every write gets its own timestamp.
func writeFile(t *testing.T, tv *testutil.TestVFS, scene, name, content string) vfs.FileProps {
	t.Helper()
	tv.Clock.Advance(time.Second)
	f, err := tv.WriteFile(context.Background(), strings.NewReader(content), vfs.FileParams{Scene: scene, Name: name})
	if err != nil {
		t.Fatalf("WriteFile(%q) error = %v", name, err)
	}
	return f
}

func writeDoc(t *testing.T, tv *testutil.TestVFS, scene, data string) vfs.DocProps {
	t.Helper()
	tv.Clock.Advance(time.Second)
	d, err := tv.WriteDoc(context.Background(), scene, []byte(data), 0)
	if err != nil {
		t.Fatalf("WriteDoc() error = %v", err)
	}
	return d
}

func readFile(t *testing.T, tv *testutil.TestVFS, scene, name string, generation int64) string {
	t.Helper()
	rc, _, err := tv.OpenFile(context.Background(), scene, name, generation)
	if err != nil {
		t.Fatalf("OpenFile(%q, %d) error = %v", name, generation, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading %q: %v", name, err)
	}
	return string(data)
}

func names(files []vfs.FileProps) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}
	return out
}
