package zipstream

import (
	"fmt"
	"hash/crc32"
	"io"
	"strings"
	"time"
)

// Entry describes one archive member to be written.
type Entry struct {
	Name    string
	ModTime time.Time
	IsDir   bool
	// Body is streamed into the archive. nil writes an empty entry.
	// Directories never carry a body.
	Body io.Reader
}

// record is the central directory information retained for each entry.
type record struct {
	name   string
	date   uint16
	clock  uint16
	crc    uint32
	size   uint32
	offset uint32
	isDir  bool
}

// Writer streams entries to an underlying io.Writer.
// Only the central directory metadata of past entries is kept in memory.
type Writer struct {
	w       *countWriter
	records []record
	comment string
	buf     []byte
	closed  bool
}

// NewWriter returns a Writer that writes an archive to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:   &countWriter{w: w},
		buf: make([]byte, 32*1024),
	}
}

// SetComment sets the end-of-central-directory comment written by Close.
func (zw *Writer) SetComment(comment string) error {
	if len(comment) > maxCommentLen {
		return fmt.Errorf("comment is %d bytes: %w", len(comment), ErrTooLarge)
	}
	zw.comment = comment
	return nil
}

// WriteEntry writes the local header, the payload and the data descriptor of e.
func (zw *Writer) WriteEntry(e Entry) error {
	if zw.closed {
		return ErrClosed
	}
	name := e.Name
	if e.IsDir && !strings.HasSuffix(name, "/") {
		name += "/"
	}
	if name == "" || len(name) > maxUint16 {
		return fmt.Errorf("invalid entry name %q: %w", name, ErrFormat)
	}
	if len(zw.records) >= maxUint16 {
		return fmt.Errorf("more than %d entries: %w", maxUint16, ErrTooLarge)
	}
	if zw.w.n > maxUint32 {
		return fmt.Errorf("local header offset %d: %w", zw.w.n, ErrTooLarge)
	}

	rec := record{
		name:   name,
		offset: uint32(zw.w.n),
		isDir:  e.IsDir,
	}
	rec.date, rec.clock = toDOSTime(e.ModTime)

	if err := zw.writeLocalHeader(&rec); err != nil {
		return err
	}

	if !e.IsDir && e.Body != nil {
		h := crc32.NewIEEE()
		start := zw.w.n
		if _, err := io.CopyBuffer(io.MultiWriter(zw.w, h), e.Body, zw.buf); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		written := zw.w.n - start
		if written > maxUint32 {
			return fmt.Errorf("entry %s is %d bytes: %w", name, written, ErrTooLarge)
		}
		rec.crc = h.Sum32()
		rec.size = uint32(written)
	}

	if err := zw.writeDataDescriptor(&rec); err != nil {
		return err
	}
	zw.records = append(zw.records, rec)
	return nil
}

// Close writes the central directory and the end-of-central-directory record.
// It does not close the underlying writer.
func (zw *Writer) Close() error {
	if zw.closed {
		return ErrClosed
	}
	zw.closed = true

	start := zw.w.n
	for i := range zw.records {
		if err := zw.writeCentralHeader(&zw.records[i]); err != nil {
			return err
		}
	}
	end := zw.w.n
	if end > maxUint32 {
		return fmt.Errorf("central directory ends at %d: %w", end, ErrTooLarge)
	}

	var b [endOfCentralLen]byte
	buf := buffer(b[:])
	buf.uint32(endOfCentralSignature)
	buf.uint16(0) // this disk
	buf.uint16(0) // disk with the central directory
	buf.uint16(uint16(len(zw.records)))
	buf.uint16(uint16(len(zw.records)))
	buf.uint32(uint32(end - start))
	buf.uint32(uint32(start))
	buf.uint16(uint16(len(zw.comment)))
	if _, err := zw.w.Write(b[:]); err != nil {
		return fmt.Errorf("writing end of central directory: %w", err)
	}
	if _, err := io.WriteString(zw.w, zw.comment); err != nil {
		return fmt.Errorf("writing archive comment: %w", err)
	}
	return nil
}

func (zw *Writer) writeLocalHeader(rec *record) error {
	var b [localHeaderLen]byte
	buf := buffer(b[:])
	buf.uint32(localHeaderSignature)
	buf.uint16(versionNeeded)
	buf.uint16(flagDataDescriptor | flagUTF8)
	buf.uint16(methodStore)
	buf.uint16(rec.clock)
	buf.uint16(rec.date)
	buf.uint32(0) // crc, in data descriptor
	buf.uint32(0) // compressed size, in data descriptor
	buf.uint32(0) // uncompressed size, in data descriptor
	buf.uint16(uint16(len(rec.name)))
	buf.uint16(0) // extra length
	if _, err := zw.w.Write(b[:]); err != nil {
		return fmt.Errorf("writing local header for %s: %w", rec.name, err)
	}
	if _, err := io.WriteString(zw.w, rec.name); err != nil {
		return fmt.Errorf("writing local header for %s: %w", rec.name, err)
	}
	return nil
}

func (zw *Writer) writeDataDescriptor(rec *record) error {
	var b [dataDescriptorLen]byte
	buf := buffer(b[:])
	buf.uint32(dataDescriptorSig)
	buf.uint32(rec.crc)
	buf.uint32(rec.size)
	buf.uint32(rec.size)
	if _, err := zw.w.Write(b[:]); err != nil {
		return fmt.Errorf("writing data descriptor for %s: %w", rec.name, err)
	}
	return nil
}

func (zw *Writer) writeCentralHeader(rec *record) error {
	var b [centralHeaderLen]byte
	buf := buffer(b[:])
	buf.uint32(centralHeaderSignature)
	buf.uint16(versionMadeBy)
	buf.uint16(versionNeeded)
	buf.uint16(flagDataDescriptor | flagUTF8)
	buf.uint16(methodStore)
	buf.uint16(rec.clock)
	buf.uint16(rec.date)
	buf.uint32(rec.crc)
	buf.uint32(rec.size)
	buf.uint32(rec.size)
	buf.uint16(uint16(len(rec.name)))
	buf.uint16(0) // extra length
	buf.uint16(0) // comment length
	buf.uint16(0) // disk number start
	buf.uint16(0) // internal attributes
	if rec.isDir {
		buf.uint32(modeDir<<16 | dosDirAttr)
	} else {
		buf.uint32(modeFile << 16)
	}
	buf.uint32(rec.offset)
	if _, err := zw.w.Write(b[:]); err != nil {
		return fmt.Errorf("writing central header for %s: %w", rec.name, err)
	}
	if _, err := io.WriteString(zw.w, rec.name); err != nil {
		return fmt.Errorf("writing central header for %s: %w", rec.name, err)
	}
	return nil
}

// countWriter tracks the archive offset.
type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
