// Package lifecycle creates portal entities and enforces the village and
// requirement status state machines.
package lifecycle

import (
	"math/rand/v2"
	"strconv"
	"sync"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// IDSource issues opaque identifiers derived from a millisecond clock. Two
// entities created within the same millisecond still get distinct ids.
type IDSource struct {
	mu   sync.Mutex
	now  Clock
	last int64
}

// NewIDSource returns an IDSource reading the given clock.
func NewIDSource(now Clock) *IDSource {
	return &IDSource{now: now}
}

// Next returns a new identifier, strictly greater than every earlier one.
func (s *IDSource) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return strconv.FormatInt(id, 10)
}

// Env supplies time, identifiers and randomness to entity constructors.
type Env struct {
	Now  Clock
	IDs  *IDSource
	Rand *rand.Rand
}

// NewEnv builds an Env on the wall clock with a time-seeded random source.
func NewEnv() Env {
	seed := uint64(time.Now().UnixNano())
	return Env{
		Now:  time.Now,
		IDs:  NewIDSource(time.Now),
		Rand: rand.New(rand.NewPCG(seed, seed>>1)),
	}
}
