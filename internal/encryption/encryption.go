// Package encryption seals exported scene archives at rest.
package encryption

import "io"

// Encryptor seals archives for the configured key pair.
type Encryptor interface {
	// Setup creates the key pair, protecting the private half with passphrase.
	Setup(passphrase string) error

	// IsConfigured reports whether the key pair exists.
	IsConfigured() bool

	// Seal returns a writer that encrypts everything written to it into w.
	// The stream is only complete once the writer is closed.
	Seal(w io.Writer) (io.WriteCloser, error)

	// Unlock decrypts the private key and returns an Opener for sealed streams.
	Unlock(passphrase string) (Opener, error)
}

// Opener decrypts sealed streams.
type Opener interface {
	Open(r io.Reader) (io.Reader, error)
}
