package encryption

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"ecorpus-go/internal/config"
)

func TestPlainEncryptor_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, input := range [][]byte{nil, []byte("scene archive")} {
		sealed, opened := roundTrip(t, PlainEncryptor{}, "", input)
		if !bytes.HasPrefix(sealed, plainMagic) {
			t.Errorf("sealed stream %q lacks the marker", sealed)
		}
		if !bytes.Equal(opened, input) {
			t.Errorf("opened = %q, want %q", opened, input)
		}
	}
}

func TestPlainEncryptor_OpenRejectsForeignStreams(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "EC", "PK\x03\x04 a zip file"} {
		if _, err := (PlainEncryptor{}).Open(strings.NewReader(input)); err == nil {
			t.Errorf("Open(%q) should fail", input)
		}
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		want    string
		wantErr bool
	}{
		{name: "default is age", typ: "", want: "*encryption.AgeEncryptor"},
		{name: "age", typ: "age", want: "*encryption.AgeEncryptor"},
		{name: "plain", typ: "plain", want: "encryption.PlainEncryptor"},
		{name: "unknown", typ: "rot13", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: tt.typ})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEncryptorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if typeName(got) != tt.want {
				t.Errorf("type = %s, want %s", typeName(got), tt.want)
			}
		})
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
