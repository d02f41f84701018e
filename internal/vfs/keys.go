package vfs

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"ecorpus-go/internal/database"
	"ecorpus-go/internal/database/sqlc"
)

const keySize = 32

func (v *VFS) insertKey(ctx context.Context, q *sqlc.Queries) ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	if _, err := q.InsertKey(ctx, sqlc.InsertKeyParams{KeyData: key, Ctime: v.now()}); err != nil {
		return nil, fmt.Errorf("inserting key: %w", err)
	}
	return key, nil
}

// GetKeys returns the signing keys, newest first. A key is created on first use.
func (v *VFS) GetKeys(ctx context.Context) ([][]byte, error) {
	var keys [][]byte
	err := v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		q := tx.Queries()
		rows, err := q.ListKeys(ctx)
		if err != nil {
			return fmt.Errorf("listing keys: %w", err)
		}
		if len(rows) == 0 {
			key, err := v.insertKey(ctx, q)
			if err != nil {
				return err
			}
			keys = [][]byte{key}
			return nil
		}
		for _, row := range rows {
			keys = append(keys, row.KeyData)
		}
		return nil
	})
	return keys, err
}

// RotateKeys adds a new signing key and drops all but the newest keep keys.
// Signatures made with a dropped key stop verifying.
func (v *VFS) RotateKeys(ctx context.Context, keep int) error {
	if keep < 1 {
		return ErrBadRequest.New("at least one key must be kept")
	}
	return v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		q := tx.Queries()
		if _, err := v.insertKey(ctx, q); err != nil {
			return err
		}
		dropped, err := q.DeleteOldKeys(ctx, int64(keep))
		if err != nil {
			return fmt.Errorf("deleting old keys: %w", err)
		}
		v.logger.Info("keys rotated", "kept", keep, "dropped", dropped)
		return nil
	})
}

func sign(key, payload []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignPayload signs payload with the newest key.
func (v *VFS) SignPayload(ctx context.Context, payload []byte) (string, error) {
	keys, err := v.GetKeys(ctx)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(sign(keys[0], payload)), nil
}

// VerifyPayload accepts a signature made by any retained key.
func (v *VFS) VerifyPayload(ctx context.Context, payload []byte, signature string) error {
	sig, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return ErrUnauthorized.New("malformed signature")
	}
	keys, err := v.GetKeys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if hmac.Equal(sig, sign(key, payload)) {
			return nil
		}
	}
	return ErrUnauthorized.New("invalid signature")
}
