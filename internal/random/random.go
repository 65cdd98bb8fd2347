// Package random provides the uniform random sources consumed by the loot
// resolver and the spawner, seeded deterministically per subsystem label.
package random

import (
	"hash/fnv"
	"math/rand"
	"sync"
)

// DefaultSeed is the root seed used when none is configured.
const DefaultSeed = "prototype"

// Source draws uniform values. Intn returns a value in [0, n) and panics
// when n <= 0, matching math/rand.
type Source interface {
	Intn(n int) int
	Float64() float64
}

func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

// Locked serializes access to a *rand.Rand so one stream can be shared by the
// scanner goroutine and request handlers.
type Locked struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLocked wraps rng. A nil rng is replaced by the default deterministic stream.
func NewLocked(rng *rand.Rand) *Locked {
	if rng == nil {
		rng = NewDeterministicRNG(DefaultSeed, "default")
	}
	return &Locked{rng: rng}
}

// NewLockedDeterministic is shorthand for NewLocked(NewDeterministicRNG(rootSeed, label)).
func NewLockedDeterministic(rootSeed, label string) *Locked {
	return NewLocked(NewDeterministicRNG(rootSeed, label))
}

func (l *Locked) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Intn(n)
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}
