package objects

import (
	"context"
	"testing"

	"ecorpus-go/internal/config"
	"ecorpus-go/internal/vfs"
)

func TestNewObjectStoreFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ObjectsConfig
		wantErr bool
	}{
		{
			name:    "memory store",
			cfg:     config.ObjectsConfig{Type: "memory"},
			wantErr: false,
		},
		{
			name:    "filesystem store",
			cfg:     config.ObjectsConfig{Type: "filesystem", Root: t.TempDir()},
			wantErr: false,
		},
		{
			name:    "filesystem store without root",
			cfg:     config.ObjectsConfig{Type: "filesystem"},
			wantErr: true,
		},
		{
			name:    "s3 store without bucket",
			cfg:     config.ObjectsConfig{Type: "s3"},
			wantErr: true,
		},
		{
			name:    "unknown store type",
			cfg:     config.ObjectsConfig{Type: "unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewObjectStoreFromConfig(context.Background(), tt.cfg, vfs.NewNopLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewObjectStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && got != nil {
				t.Error("NewObjectStoreFromConfig() should return nil on error")
			}
			if !tt.wantErr {
				if err := got.ValidateSetup(); err != nil {
					t.Errorf("ValidateSetup() error = %v", err)
				}
			}
		})
	}
}
