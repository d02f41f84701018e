package testutil

import (
	"sync"
	"time"
)

// StubClock returns a fixed time. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock set to the given time.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to 2024-01-15 10:30:00 UTC.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubIDGenerator returns sequential ids starting at 100, after first
// draining any scripted ids. Script the same id twice to force a collision.
type StubIDGenerator struct {
	mu       sync.Mutex
	scripted []int64
	counter  int64
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{counter: 99}
}

// Script queues ids to be returned before the sequence resumes.
func (g *StubIDGenerator) Script(ids ...int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scripted = append(g.scripted, ids...)
}

func (g *StubIDGenerator) New() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.scripted) > 0 {
		id := g.scripted[0]
		g.scripted = g.scripted[1:]
		return id
	}
	g.counter++
	return g.counter
}
