package zipstream

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"strings"
	"testing"
	"time"
)

type testEntry struct {
	name  string
	isDir bool
	data  string
}

func encode(t *testing.T, entries []testEntry, comment string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := NewWriter(&buf)
	if comment != "" {
		if err := zw.SetComment(comment); err != nil {
			t.Fatalf("SetComment() error = %v", err)
		}
	}
	mtime := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	for _, e := range entries {
		entry := Entry{Name: e.name, ModTime: mtime, IsDir: e.isDir}
		if !e.isDir {
			// iotest-like one byte reads prove the payload is streamed.
			entry.Body = &oneByteReader{r: strings.NewReader(e.data)}
		}
		if err := zw.WriteEntry(entry); err != nil {
			t.Fatalf("WriteEntry(%s) error = %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return buf.Bytes()
}

type oneByteReader struct{ r io.Reader }

func (o *oneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return o.r.Read(p[:1])
}

func TestRoundTrip(t *testing.T) {
	entries := []testEntry{
		{name: "scene/", isDir: true},
		{name: "scene/articles", isDir: true},
		{name: "scene/scene.svx.json", data: `{"asset":{"version":"1.0"}}`},
		{name: "scene/models/chair.glb", data: strings.Repeat("glTF", 5000)},
		{name: "scene/empty.txt", data: ""},
		{name: "scene/articles/été.html", data: "<p>hello</p>"},
	}
	archive := encode(t, entries, "")

	zr, err := NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if len(zr.File) != len(entries) {
		t.Fatalf("got %d files, want %d", len(zr.File), len(entries))
	}

	for i, e := range entries {
		f := zr.File[i]
		wantName := e.name
		if e.isDir && !strings.HasSuffix(wantName, "/") {
			wantName += "/"
		}
		if f.Name != wantName {
			t.Errorf("File[%d].Name = %q, want %q", i, f.Name, wantName)
		}
		if f.IsDir() != e.isDir {
			t.Errorf("File[%d].IsDir() = %v, want %v", i, f.IsDir(), e.isDir)
		}
		if f.UncompressedSize != uint64(len(e.data)) {
			t.Errorf("File[%d].UncompressedSize = %d, want %d", i, f.UncompressedSize, len(e.data))
		}
		if f.CRC32 != crc32.ChecksumIEEE([]byte(e.data)) {
			t.Errorf("File[%d].CRC32 = %08x, want %08x", i, f.CRC32, crc32.ChecksumIEEE([]byte(e.data)))
		}
		if f.Flags&flagDataDescriptor == 0 || f.Flags&flagUTF8 == 0 {
			t.Errorf("File[%d].Flags = %04x, want streaming and utf-8 bits", i, f.Flags)
		}
		got, err := f.ReadAll()
		if err != nil {
			t.Fatalf("ReadAll(%s) error = %v", f.Name, err)
		}
		if string(got) != e.data {
			t.Errorf("ReadAll(%s) = %d bytes, want %d", f.Name, len(got), len(e.data))
		}
	}
}

func TestWriter_ReadableByArchiveZip(t *testing.T) {
	archive := encode(t, []testEntry{
		{name: "dir", isDir: true},
		{name: "dir/a.txt", data: "alpha"},
		{name: "b.bin", data: strings.Repeat("\x00\xff", 1024)},
	}, "exported")

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	if zr.Comment != "exported" {
		t.Errorf("Comment = %q, want %q", zr.Comment, "exported")
	}
	want := map[string]string{
		"dir/":      "",
		"dir/a.txt": "alpha",
		"b.bin":     strings.Repeat("\x00\xff", 1024),
	}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Open(%s) error = %v", f.Name, err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("reading %s: %v", f.Name, err)
		}
		if string(got) != want[f.Name] {
			t.Errorf("%s content mismatch", f.Name)
		}
		if f.Method != zip.Store {
			t.Errorf("%s Method = %d, want Store", f.Name, f.Method)
		}
		delete(want, f.Name)
	}
	if len(want) != 0 {
		t.Errorf("missing entries: %v", want)
	}
}

func TestEndOfCentral_CommentLength(t *testing.T) {
	tests := []struct {
		name    string
		comment string
	}{
		{name: "no comment", comment: ""},
		{name: "short comment", comment: "scene export"},
		// A comment holding a fake end record must not be mistaken for the real one.
		{name: "comment containing signature", comment: "PK\x05\x06" + strings.Repeat("x", 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive := encode(t, []testEntry{{name: "a.txt", data: "a"}}, tt.comment)

			eocd := archive[len(archive)-len(tt.comment)-endOfCentralLen:]
			if got := binary.LittleEndian.Uint32(eocd); got != endOfCentralSignature {
				t.Fatalf("end record signature = %08x", got)
			}
			if got := int(binary.LittleEndian.Uint16(eocd[20:])); got != len(tt.comment) {
				t.Errorf("comment length field = %d, want %d", got, len(tt.comment))
			}

			zr, err := NewReader(bytes.NewReader(archive), int64(len(archive)))
			if err != nil {
				t.Fatalf("NewReader() error = %v", err)
			}
			if zr.Comment != tt.comment {
				t.Errorf("Comment = %q, want %q", zr.Comment, tt.comment)
			}
			if len(zr.File) != 1 {
				t.Errorf("got %d files, want 1", len(zr.File))
			}
		})
	}
}

func TestReader_ArchiveZipDeflate(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("deflated.txt")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	data := strings.Repeat("compressible ", 200)
	io.WriteString(w, data)
	if err := zw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	got, err := zr.File[0].ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != data {
		t.Errorf("ReadAll() returned %d bytes, want %d", len(got), len(data))
	}
}

func TestReader_CorruptPayload(t *testing.T) {
	archive := encode(t, []testEntry{{name: "a.txt", data: "hello world"}}, "")
	// Payload starts right after the 30 byte header and the 5 byte name.
	archive[localHeaderLen+len("a.txt")] ^= 0xff

	zr, err := NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if _, err := zr.File[0].ReadAll(); !errors.Is(err, ErrChecksum) {
		t.Errorf("ReadAll() error = %v, want ErrChecksum", err)
	}
}

func TestReader_NotAZip(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("short"),
		bytes.Repeat([]byte("not a zip "), 100),
	}
	for _, in := range inputs {
		if _, err := NewReader(bytes.NewReader(in), int64(len(in))); !errors.Is(err, ErrFormat) {
			t.Errorf("NewReader(%d bytes) error = %v, want ErrFormat", len(in), err)
		}
	}
}

func TestDOSTime(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "regular date",
			in:   time.Date(2023, 6, 7, 8, 9, 10, 0, time.UTC),
			want: time.Date(2023, 6, 7, 8, 9, 10, 0, time.UTC),
		},
		{
			name: "odd seconds round down",
			in:   time.Date(2023, 6, 7, 8, 9, 11, 0, time.UTC),
			want: time.Date(2023, 6, 7, 8, 9, 10, 0, time.UTC),
		},
		{
			name: "unix epoch clamps to 1980",
			in:   time.Unix(0, 0),
			want: dosEpoch,
		},
		{
			name: "zero time clamps to 1980",
			in:   time.Time{},
			want: dosEpoch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, clock := toDOSTime(tt.in)
			if got := fromDOSTime(date, clock); !got.Equal(tt.want) {
				t.Errorf("round trip of %v = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriter_Closed(t *testing.T) {
	zw := NewWriter(io.Discard)
	if err := zw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := zw.WriteEntry(Entry{Name: "late.txt"}); !errors.Is(err, ErrClosed) {
		t.Errorf("WriteEntry() after Close error = %v, want ErrClosed", err)
	}
}
