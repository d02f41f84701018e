package encryption

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"ecorpus-go/internal/config"
)

func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	return NewAgeEncryptor(config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "keys", "ecorpus.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "ecorpus.key"),
	})
}

// roundTrip seals input with e and opens it again with passphrase.
func roundTrip(t *testing.T, e Encryptor, passphrase string, input []byte) (sealed, opened []byte) {
	t.Helper()

	var buf bytes.Buffer
	w, err := e.Seal(&buf)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if _, err := w.Write(input); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	sealed = bytes.Clone(buf.Bytes())

	o, err := e.Unlock(passphrase)
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	r, err := o.Open(&buf)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	opened, err = io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return sealed, opened
}

func TestAgeEncryptor_IsConfigured(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)
	if e.IsConfigured() {
		t.Error("IsConfigured() = true before Setup, want false")
	}
	if err := e.Setup("test-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false after Setup, want true")
	}
}

func TestAgeEncryptor_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "document", input: []byte(`{"asset":{"version":"1.0"}}`)},
		{name: "empty", input: []byte{}},
		{name: "binary", input: []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0xff}},
		{name: "larger than one chunk", input: bytes.Repeat([]byte("glb"), 40000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newTestAgeEncryptor(t)
			if err := e.Setup("test-passphrase"); err != nil {
				t.Fatalf("Setup() error = %v", err)
			}

			sealed, opened := roundTrip(t, e, "test-passphrase", tt.input)
			if len(tt.input) > 0 && bytes.Contains(sealed, tt.input) {
				t.Error("sealed stream contains the plaintext")
			}
			if !bytes.Equal(opened, tt.input) {
				t.Errorf("round trip returned %d bytes, want %d", len(opened), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_Errors(t *testing.T) {
	t.Parallel()

	t.Run("wrong passphrase", func(t *testing.T) {
		e := newTestAgeEncryptor(t)
		if err := e.Setup("correct-passphrase"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if _, err := e.Unlock("wrong-passphrase"); err == nil {
			t.Error("Unlock() with wrong passphrase should fail")
		}
	})

	t.Run("seal before setup", func(t *testing.T) {
		e := newTestAgeEncryptor(t)
		if _, err := e.Seal(io.Discard); err == nil {
			t.Error("Seal() before Setup should fail")
		}
	})

	t.Run("unlock before setup", func(t *testing.T) {
		e := newTestAgeEncryptor(t)
		if _, err := e.Unlock("passphrase"); err == nil {
			t.Error("Unlock() before Setup should fail")
		}
	})

	t.Run("empty passphrase", func(t *testing.T) {
		e := newTestAgeEncryptor(t)
		if err := e.Setup(""); err == nil {
			t.Error("Setup(\"\") should fail")
		}
	})
}
