package vfs_test

import (
	"context"
	"testing"

	"ecorpus-go/internal/testutil"
	"ecorpus-go/internal/vfs"
)

func TestGetKeys(t *testing.T) {
	ctx := context.Background()
	tv := testutil.NewTestVFS(t)

	first, err := tv.GetKeys(ctx)
	if err != nil {
		t.Fatalf("GetKeys() error = %v", err)
	}
	if len(first) != 1 || len(first[0]) != 32 {
		t.Fatalf("GetKeys() = %d keys", len(first))
	}
	again, err := tv.GetKeys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 1 || string(again[0]) != string(first[0]) {
		t.Error("GetKeys() created a second key")
	}
}

func TestSignPayload(t *testing.T) {
	ctx := context.Background()
	tv := testutil.NewTestVFS(t)
	payload := []byte("alice:1700000000")

	sig, err := tv.SignPayload(ctx, payload)
	if err != nil {
		t.Fatalf("SignPayload() error = %v", err)
	}
	if err := tv.VerifyPayload(ctx, payload, sig); err != nil {
		t.Errorf("VerifyPayload() error = %v", err)
	}

	tests := []struct {
		name    string
		payload []byte
		sig     string
	}{
		{name: "tampered payload", payload: []byte("alice:1700000001"), sig: sig},
		{name: "malformed signature", payload: payload, sig: "not base64!"},
		{name: "empty signature", payload: payload, sig: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tv.VerifyPayload(ctx, tt.payload, tt.sig); !vfs.ErrUnauthorized.Has(err) {
				t.Errorf("VerifyPayload() error = %v, want unauthorized", err)
			}
		})
	}
}

func TestRotateKeys(t *testing.T) {
	ctx := context.Background()
	tv := testutil.NewTestVFS(t)
	payload := []byte("token")

	old, err := tv.SignPayload(ctx, payload)
	if err != nil {
		t.Fatal(err)
	}

	if err := tv.RotateKeys(ctx, 2); err != nil {
		t.Fatalf("RotateKeys() error = %v", err)
	}
	newer, err := tv.SignPayload(ctx, payload)
	if err != nil {
		t.Fatal(err)
	}
	if newer == old {
		t.Error("newest key did not change after rotation")
	}
	if err := tv.VerifyPayload(ctx, payload, old); err != nil {
		t.Errorf("retained key no longer verifies: %v", err)
	}

	if err := tv.RotateKeys(ctx, 1); err != nil {
		t.Fatalf("RotateKeys() error = %v", err)
	}
	keys, err := tv.GetKeys(ctx)
	if err != nil || len(keys) != 1 {
		t.Fatalf("GetKeys() = %d keys, %v", len(keys), err)
	}
	if err := tv.VerifyPayload(ctx, payload, old); !vfs.ErrUnauthorized.Has(err) {
		t.Errorf("dropped key still verifies: %v", err)
	}

	if err := tv.RotateKeys(ctx, 0); !vfs.ErrBadRequest.Has(err) {
		t.Errorf("RotateKeys(0) error = %v, want bad request", err)
	}
}
