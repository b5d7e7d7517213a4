// Package idgen provides zone identifier generators. Stores take a Generator
// so tests can supply deterministic ids.
package idgen

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator produces identifiers that are unique in practice.
type Generator interface {
	NewID() string
}

// Timestamp generates ids of the form "<base36 millis>-<random suffix>".
// The timestamp part never goes backwards within one generator.
type Timestamp struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewTimestamp creates a timestamp generator using the wall clock.
func NewTimestamp() *Timestamp {
	return &Timestamp{now: time.Now}
}

// NewID returns the next id.
func (g *Timestamp) NewID() string {
	g.mu.Lock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	return strconv.FormatInt(ms, 36) + "-" + strconv.FormatUint(rand.Uint64()&0xffffffffff, 36)
}

// UUID generates random version 4 UUIDs.
type UUID struct{}

// NewID returns a new UUID string.
func (UUID) NewID() string {
	return uuid.NewString()
}

// Sequence generates "<prefix>-1", "<prefix>-2", ... and is meant for tests
// and replay scripts that need stable ids.
type Sequence struct {
	Prefix string

	mu sync.Mutex
	n  int
}

// NewID returns the next id in the sequence.
func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.Prefix, s.n)
}

// New returns the generator for a configured scheme: "uuid", "sequence" or
// "timestamp" (the default for anything else).
func New(scheme string) Generator {
	switch scheme {
	case "uuid":
		return UUID{}
	case "sequence":
		return &Sequence{Prefix: "zone"}
	default:
		return NewTimestamp()
	}
}
