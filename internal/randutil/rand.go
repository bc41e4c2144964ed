package randutil

import (
	crand "crypto/rand"
	"encoding/binary"
	rand "math/rand/v2"
	"sync"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// All deterministic call sites (tests, --seed) derive their two PCG seeds here
// so a given seed always replays the same shuffles.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// NewSecure returns a *rand.Rand whose PCG state is seeded from crypto/rand.
func NewSecure() *rand.Rand {
	var buf [16]byte
	if _, err := crand.Read(buf[:]); err != nil {
		panic("failed to seed rng: " + err.Error())
	}
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(buf[:8]), binary.LittleEndian.Uint64(buf[8:])))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Locked serialises access to a *rand.Rand so one source can be shared by
// every table in a process.
type Locked struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLocked wraps rng for concurrent use.
func NewLocked(rng *rand.Rand) *Locked {
	return &Locked{rng: rng}
}

// IntN returns a uniform int in [0, n).
func (l *Locked) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.IntN(n)
}
