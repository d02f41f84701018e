package vfs

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// verifyConcurrency bounds the existence checks of the second GC pass.
const verifyConcurrency = 8

// CleanReport lists what a Clean run found.
type CleanReport struct {
	// Removed are loose objects deleted from the store.
	Removed []string
	// Missing are referenced hashes absent from the store. They are logged,
	// not repaired.
	Missing []string
}

// Clean deletes objects no file row references, then checks that every
// referenced object is present. It takes no lock: objects are immutable, so
// the worst race deletes an object whose writer has not committed yet.
func (v *VFS) Clean(ctx context.Context) (CleanReport, error) {
	var report CleanReport

	hashes, err := v.db.Queries().ListReferencedHashes(ctx, folderHash)
	if err != nil {
		return report, fmt.Errorf("listing referenced hashes: %w", err)
	}
	referenced := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		referenced[h] = struct{}{}
	}

	stored, err := v.objects.List(ctx)
	if err != nil {
		return report, fmt.Errorf("listing objects: %w", err)
	}
	for _, h := range stored {
		if _, ok := referenced[h]; ok {
			continue
		}
		if err := v.objects.Remove(ctx, h); err != nil {
			return report, fmt.Errorf("removing loose object %s: %w", h, err)
		}
		v.logger.Info("removed loose object", "hash", h)
		report.Removed = append(report.Removed, h)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(verifyConcurrency)
	for _, h := range hashes {
		g.Go(func() error {
			ok, err := v.objects.Exists(gctx, h)
			if err != nil {
				return fmt.Errorf("checking object %s: %w", h, err)
			}
			if !ok {
				v.logger.Error("referenced object is missing", "hash", h)
				mu.Lock()
				report.Missing = append(report.Missing, h)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	slices.Sort(report.Missing)
	return report, nil
}
