package sim

import (
	"math/rand"
	"sync"
)

// lockedRand is the default RandomSource: a seeded PRNG guarded by a mutex,
// since every in-flight order goroutine draws from it.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource returns a RandomSource seeded with the given value.
// Production wiring seeds from the clock; tests pass a fixed seed or inject
// their own deterministic sequence instead.
func NewRandomSource(seed int64) *lockedRand {
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}
