package uid

import (
	"strings"
	"testing"
)

func TestMake_Range(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id := Make()
		if id < 0 || id >= Max {
			t.Fatalf("Make() = %d, out of [0, 2^48)", id)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id := Make()
		s, err := ToString(id)
		if err != nil {
			t.Fatalf("ToString(%d) error = %v", id, err)
		}
		if len(s) != EncodedLen {
			t.Fatalf("ToString(%d) = %q, want %d characters", id, s, EncodedLen)
		}
		got, err := FromString(s)
		if err != nil {
			t.Fatalf("FromString(%q) error = %v", s, err)
		}
		if got != id {
			t.Fatalf("FromString(ToString(%d)) = %d", id, got)
		}
	}
}

func TestToString_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		id      int64
		want    string
		wantErr bool
	}{
		{name: "zero", id: 0, want: "AAAAAAAA"},
		{name: "max valid", id: Max - 1, want: "________"},
		{name: "negative", id: -1, wantErr: true},
		{name: "2^48", id: Max, wantErr: true},
		{name: "far above", id: 1 << 60, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToString(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ToString(%d) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ToString(%d) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestFromString_Rejects(t *testing.T) {
	inputs := []string{
		"",
		"AAAA",
		"AAAAAAAAAAAA",
		"AAAAAAA=",
		"AAAA+AAA",
		strings.Repeat("_", 9),
	}
	for _, in := range inputs {
		if _, err := FromString(in); err == nil {
			t.Errorf("FromString(%q) expected error", in)
		}
	}
}
