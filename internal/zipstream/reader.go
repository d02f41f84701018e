package zipstream

import (
	"bytes"
	"compress/flate"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"strings"
	"time"
)

// File is an archive member as described by its central directory record.
type File struct {
	Name             string
	ModTime          time.Time
	CRC32            uint32
	CompressedSize   uint64
	UncompressedSize uint64
	Method           uint16
	Flags            uint16

	headerOffset int64
	r            io.ReaderAt
}

// IsDir reports whether the entry names a directory.
func (f *File) IsDir() bool {
	return strings.HasSuffix(f.Name, "/")
}

// Reader gives access to the entries of an archive.
type Reader struct {
	File    []*File
	Comment string
}

// NewReader locates the end of central directory record of the archive in r
// and decodes the central directory it points to.
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	eocdOffset, eocd, comment, err := findEndOfCentral(r, size)
	if err != nil {
		return nil, err
	}

	rd := reader(eocd[4:])
	disk := rd.uint16()
	cdDisk := rd.uint16()
	_ = rd.uint16() // entries on this disk
	total := rd.uint16()
	cdSize := int64(rd.uint32())
	cdOffset := int64(rd.uint32())
	if disk != 0 || cdDisk != 0 {
		return nil, fmt.Errorf("multi-disk archive: %w", ErrFormat)
	}
	if cdOffset+cdSize > eocdOffset {
		return nil, fmt.Errorf("central directory [%d, %d) overlaps end record at %d: %w", cdOffset, cdOffset+cdSize, eocdOffset, ErrFormat)
	}

	cd := make([]byte, cdSize)
	if _, err := r.ReadAt(cd, cdOffset); err != nil {
		return nil, fmt.Errorf("reading central directory: %w", err)
	}

	files := make([]*File, 0, total)
	for len(cd) > 0 {
		f, rest, err := readCentralHeader(cd)
		if err != nil {
			return nil, err
		}
		if f.headerOffset+localHeaderLen > cdOffset {
			return nil, fmt.Errorf("entry %s: local header offset %d beyond data: %w", f.Name, f.headerOffset, ErrFormat)
		}
		f.r = r
		files = append(files, f)
		cd = rest
	}
	if len(files) != int(total) {
		return nil, fmt.Errorf("central directory has %d entries, end record declares %d: %w", len(files), total, ErrFormat)
	}

	return &Reader{File: files, Comment: comment}, nil
}

// findEndOfCentral scans backward from the end of the archive for the end of
// central directory signature. A candidate is accepted only when its comment
// length field accounts exactly for the bytes that follow it.
func findEndOfCentral(r io.ReaderAt, size int64) (offset int64, record []byte, comment string, err error) {
	if size < endOfCentralLen {
		return 0, nil, "", fmt.Errorf("archive is %d bytes: %w", size, ErrFormat)
	}
	tailLen := int64(endOfCentralLen + maxCommentLen)
	if tailLen > size {
		tailLen = size
	}
	tail := make([]byte, tailLen)
	if _, err := r.ReadAt(tail, size-tailLen); err != nil && err != io.EOF {
		return 0, nil, "", fmt.Errorf("reading archive tail: %w", err)
	}

	for i := len(tail) - endOfCentralLen; i >= 0; i-- {
		rd := reader(tail[i:])
		if rd.uint32() != endOfCentralSignature {
			continue
		}
		_ = rd.uint32()
		_ = rd.uint32()
		_ = rd.uint32()
		_ = rd.uint32()
		commentLen := int(rd.uint16())
		if commentLen != len(tail)-i-endOfCentralLen {
			continue
		}
		start := size - tailLen + int64(i)
		return start, tail[i : i+endOfCentralLen], string(tail[i+endOfCentralLen:]), nil
	}
	return 0, nil, "", fmt.Errorf("end of central directory not found: %w", ErrFormat)
}

func readCentralHeader(b []byte) (*File, []byte, error) {
	if len(b) < centralHeaderLen {
		return nil, nil, fmt.Errorf("truncated central directory: %w", ErrFormat)
	}
	rd := reader(b)
	if rd.uint32() != centralHeaderSignature {
		return nil, nil, fmt.Errorf("bad central header signature: %w", ErrFormat)
	}
	_ = rd.uint16() // version made by
	_ = rd.uint16() // version needed
	f := &File{}
	f.Flags = rd.uint16()
	f.Method = rd.uint16()
	clock := rd.uint16()
	date := rd.uint16()
	f.ModTime = fromDOSTime(date, clock)
	f.CRC32 = rd.uint32()
	f.CompressedSize = uint64(rd.uint32())
	f.UncompressedSize = uint64(rd.uint32())
	nameLen := int(rd.uint16())
	extraLen := int(rd.uint16())
	commentLen := int(rd.uint16())
	_ = rd.uint16() // disk number start
	_ = rd.uint16() // internal attributes
	_ = rd.uint32() // external attributes
	f.headerOffset = int64(rd.uint32())

	end := centralHeaderLen + nameLen + extraLen + commentLen
	if len(b) < end {
		return nil, nil, fmt.Errorf("truncated central header: %w", ErrFormat)
	}
	f.Name = string(b[centralHeaderLen : centralHeaderLen+nameLen])
	return f, b[end:], nil
}

// Open returns a reader over the entry's decompressed payload. The CRC-32 and
// size recorded in the central directory are checked once the payload is
// fully read.
func (f *File) Open() (io.ReadCloser, error) {
	var lh [localHeaderLen]byte
	if _, err := f.r.ReadAt(lh[:], f.headerOffset); err != nil {
		return nil, fmt.Errorf("reading local header of %s: %w", f.Name, err)
	}
	rd := reader(lh[:])
	if rd.uint32() != localHeaderSignature {
		return nil, fmt.Errorf("bad local header signature for %s: %w", f.Name, ErrFormat)
	}
	// Only the variable-length field sizes are taken from the local header;
	// its sizes may be zero in streaming mode.
	rest := reader(lh[26:])
	nameLen := int64(rest.uint16())
	extraLen := int64(rest.uint16())
	dataOffset := f.headerOffset + localHeaderLen + nameLen + extraLen

	section := io.NewSectionReader(f.r, dataOffset, int64(f.CompressedSize))

	var body io.ReadCloser
	switch f.Method {
	case methodStore:
		body = io.NopCloser(section)
	case methodDeflate:
		body = flate.NewReader(section)
	default:
		return nil, fmt.Errorf("entry %s uses method %d: %w", f.Name, f.Method, ErrAlgorithm)
	}
	return &checksumReader{
		rc:   body,
		hash: crc32.NewIEEE(),
		want: f.CRC32,
		size: f.UncompressedSize,
		name: f.Name,
	}, nil
}

// ReadAll reads a whole entry into memory. Meant for small members such as
// scene documents.
func (f *File) ReadAll() ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type checksumReader struct {
	rc   io.ReadCloser
	hash hash.Hash32
	want uint32
	size uint64
	read uint64
	name string
	err  error
}

func (c *checksumReader) Read(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.rc.Read(p)
	c.hash.Write(p[:n])
	c.read += uint64(n)
	if c.read > c.size {
		err = fmt.Errorf("entry %s longer than %d bytes: %w", c.name, c.size, ErrFormat)
	}
	if err == io.EOF {
		if c.read != c.size {
			err = fmt.Errorf("entry %s is %d bytes, want %d: %w", c.name, c.read, c.size, ErrFormat)
		} else if c.hash.Sum32() != c.want {
			err = fmt.Errorf("entry %s: %w", c.name, ErrChecksum)
		}
	}
	c.err = err
	return n, err
}

func (c *checksumReader) Close() error {
	return c.rc.Close()
}
