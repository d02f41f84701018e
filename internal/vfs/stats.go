package vfs

import (
	"context"
	"fmt"
)

// Stats are catalog-wide counters. Objects and ObjectBytes count distinct
// referenced content, not what the object store holds.
type Stats struct {
	Scenes      int64
	Files       int64
	Documents   int64
	Users       int64
	Objects     int64
	ObjectBytes int64
}

func (v *VFS) Stats(ctx context.Context) (Stats, error) {
	row, err := v.db.Queries().GetStats(ctx, folderHash)
	if err != nil {
		return Stats{}, fmt.Errorf("getting stats: %w", err)
	}
	return Stats(row), nil
}
