// Package zipstream encodes and decodes ZIP archives without holding entry
// payloads in memory.
//
// The writer only produces stored (uncompressed) entries. Every local header
// carries general purpose bit 3, so sizes and CRC-32 follow the payload in a
// data descriptor and the central directory repeats them with the local
// header offset. The reader trusts the central directory only.
package zipstream

import (
	"encoding/binary"
	"errors"
	"time"
)

// Sentinel errors for package zipstream.
var (
	ErrFormat    = errors.New("zipstream: not a valid zip file")
	ErrAlgorithm = errors.New("zipstream: unsupported compression algorithm")
	ErrChecksum  = errors.New("zipstream: checksum error")
	ErrTooLarge  = errors.New("zipstream: archive exceeds zip32 limits")
	ErrClosed    = errors.New("zipstream: writer is closed")
)

const (
	localHeaderSignature   = 0x04034b50
	dataDescriptorSig      = 0x08074b50
	centralHeaderSignature = 0x02014b50
	endOfCentralSignature  = 0x06054b50

	localHeaderLen    = 30
	dataDescriptorLen = 16
	centralHeaderLen  = 46
	endOfCentralLen   = 22
	maxCommentLen     = 0xffff

	flagDataDescriptor = 0x0008
	flagUTF8           = 0x0800

	methodStore   = 0
	methodDeflate = 8

	versionNeeded = 20
	// made by: unix host (3), ZIP version 2.0
	versionMadeBy = 3<<8 | 20

	maxUint32 = 0xffffffff
	maxUint16 = 0xffff
)

const (
	modeDir  = 0o040755
	modeFile = 0o100644
	// MS-DOS directory attribute, kept for readers that ignore unix modes.
	dosDirAttr = 0x10
)

// dosEpoch is the earliest instant a DOS date field can represent.
var dosEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// dosMax is the latest instant a DOS date field can represent.
var dosMax = time.Date(2107, time.December, 31, 23, 59, 58, 0, time.UTC)

// toDOSTime converts t to the DOS date and time fields, clamping to the
// representable range. Seconds are stored with 2s resolution.
func toDOSTime(t time.Time) (date, clock uint16) {
	t = t.UTC()
	if t.Before(dosEpoch) {
		t = dosEpoch
	}
	if t.After(dosMax) {
		t = dosMax
	}
	date = uint16(t.Year()-1980)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
	clock = uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second()/2)
	return date, clock
}

func fromDOSTime(date, clock uint16) time.Time {
	return time.Date(
		int(date>>9)+1980,
		time.Month(date>>5&0xf),
		int(date&0x1f),
		int(clock>>11),
		int(clock>>5&0x3f),
		int(clock&0x1f)*2,
		0,
		time.UTC,
	)
}

// buffer is a little-endian field encoder over a fixed slice.
type buffer []byte

func (b *buffer) uint16(v uint16) {
	binary.LittleEndian.PutUint16(*b, v)
	*b = (*b)[2:]
}

func (b *buffer) uint32(v uint32) {
	binary.LittleEndian.PutUint32(*b, v)
	*b = (*b)[4:]
}

// reader is the decoding counterpart of buffer.
type reader []byte

func (r *reader) uint16() uint16 {
	v := binary.LittleEndian.Uint16(*r)
	*r = (*r)[2:]
	return v
}

func (r *reader) uint32() uint32 {
	v := binary.LittleEndian.Uint32(*r)
	*r = (*r)[4:]
	return v
}
