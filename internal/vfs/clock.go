package vfs

import (
	"time"

	"ecorpus-go/internal/uid"
)

// Clock abstracts time retrieval so catalog timestamps are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator produces scene and user identifiers.
type IDGenerator interface {
	New() int64
}

// RandomIDGenerator produces uniformly random 48-bit identifiers.
type RandomIDGenerator struct{}

func (RandomIDGenerator) New() int64 { return uid.Make() }

// toMillis is the catalog's timestamp representation.
func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
