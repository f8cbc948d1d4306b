// Package random provides the random sources used by combat: deck draws,
// position picks and targeting jitter.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

// Source is the subset of math/rand used by the game.
type Source interface {
	// Intn returns a value in [0, n). n must be positive.
	Intn(n int) int
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// RNG is a seeded Source that counts draws. It is safe for concurrent use.
type RNG struct {
	mu   sync.Mutex
	seed int64
	src  *rand.Rand
	pos  int64
}

// New creates a deterministic RNG from a seed.
func New(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos++
	return r.src.Intn(n)
}

func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos++
	return r.src.Float64()
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

// Fixed always returns the same values. Useful for removing jitter and
// making picks predictable in tests.
type Fixed struct {
	Index int
	Value float64
}

func (f Fixed) Intn(n int) int {
	if f.Index >= n {
		return n - 1
	}
	return f.Index
}

func (f Fixed) Float64() float64 {
	return f.Value
}
