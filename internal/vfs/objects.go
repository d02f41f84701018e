package vfs

import (
	"context"
	"io"
)

// Object identifies a stored blob.
type Object struct {
	// Hash is the unpadded base64url SHA-256 of the content.
	Hash string
	Size int64
}

// ObjectStore is content-addressed, append-only blob storage.
// A blob becomes visible under its hash only once it is completely written.
type ObjectStore interface {
	// Put streams r into the store and returns the resulting object.
	// Storing content that already exists is a no-op that returns the same hash.
	// Cancelling ctx aborts the read of r and discards the partial upload.
	Put(ctx context.Context, r io.Reader) (Object, error)

	// Open returns the content of a blob. Returns ErrNotFound if absent.
	Open(ctx context.Context, hash string) (io.ReadCloser, error)

	// Exists reports whether a blob is stored under hash.
	Exists(ctx context.Context, hash string) (bool, error)

	// Remove deletes a blob. Removing an absent blob is not an error.
	Remove(ctx context.Context, hash string) error

	// List returns the hashes of every stored blob.
	List(ctx context.Context) ([]string, error)

	// ValidateSetup verifies that the store is accessible and properly configured.
	ValidateSetup() error
}
