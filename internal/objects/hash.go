package objects

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"hash"
	"io"

	"github.com/google/uuid"
)

// newHash returns the digest used to name objects.
func newHash() hash.Hash { return sha256.New() }

// encodeHash renders a digest as an object name.
func encodeHash(sum []byte) string {
	return base64.RawURLEncoding.EncodeToString(sum)
}

// HashBytes returns the object name of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return encodeHash(sum[:])
}

// validHash reports whether s can be an object name. It guards path joins
// against traversal.
func validHash(s string) bool {
	if len(s) != base64.RawURLEncoding.EncodedLen(sha256.Size) {
		return false
	}
	_, err := base64.RawURLEncoding.Strict().DecodeString(s)
	return err == nil
}

// uploadName returns a unique staging file name.
func uploadName() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// ctxReader stops reading once ctx is done. When r is an io.Closer it is
// also closed on cancellation, which unblocks a Read stuck on a stalled
// client; any other reader is only checked between reads.
type ctxReader struct {
	ctx  context.Context
	r    io.Reader
	stop func() bool
}

// newCtxReader wraps r. The caller must call Close when done reading.
func newCtxReader(ctx context.Context, r io.Reader) *ctxReader {
	c := &ctxReader{ctx: ctx, r: r, stop: func() bool { return false }}
	if closer, ok := r.(io.Closer); ok {
		c.stop = context.AfterFunc(ctx, func() { closer.Close() })
	}
	return c
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := c.r.Read(p)
	if err != nil && c.ctx.Err() != nil {
		// The source was closed under us; report why.
		return n, c.ctx.Err()
	}
	return n, err
}

// Close detaches the cancellation hook. It does not close r.
func (c *ctxReader) Close() error {
	c.stop()
	return nil
}
