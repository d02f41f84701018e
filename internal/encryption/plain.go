package encryption

import (
	"bytes"
	"fmt"
	"io"
)

// plainMagic marks streams written by PlainEncryptor.
var plainMagic = []byte("ECPLAIN\x00")

// PlainEncryptor only frames the stream with a marker. It lets tests and
// local setups exercise the sealed export path without keys.
type PlainEncryptor struct{}

var _ Encryptor = PlainEncryptor{}

func (PlainEncryptor) Setup(string) error { return nil }

func (PlainEncryptor) IsConfigured() bool { return true }

func (PlainEncryptor) Seal(w io.Writer) (io.WriteCloser, error) {
	if _, err := w.Write(plainMagic); err != nil {
		return nil, fmt.Errorf("writing stream marker: %w", err)
	}
	return nopCloser{w}, nil
}

func (PlainEncryptor) Unlock(string) (Opener, error) {
	return PlainEncryptor{}, nil
}

func (PlainEncryptor) Open(r io.Reader) (io.Reader, error) {
	marker := make([]byte, len(plainMagic))
	if _, err := io.ReadFull(r, marker); err != nil {
		return nil, fmt.Errorf("reading stream marker: %w", err)
	}
	if !bytes.Equal(marker, plainMagic) {
		return nil, fmt.Errorf("stream was not written by the plain encryptor")
	}
	return r, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
