package puzzle

import "math/rand"

// Random is the seedable random source threaded explicitly through
// generators. There is no hidden global state: two generators built
// from the same seed and parameters produce the same instance.
type Random struct {
	r *rand.Rand
}

// NewRandom returns a source seeded deterministically from seed.
func NewRandom(seed int64) *Random {
	return &Random{r: rand.New(rand.NewSource(seed))}
}

// Bits returns n random bits, 0 <= n <= 31.
func (rng *Random) Bits(n int) uint32 {
	if n <= 0 {
		return 0
	}
	return uint32(rng.r.Int63n(1 << n))
}

// UpTo returns a uniform value in [0, limit).
func (rng *Random) UpTo(limit int) int {
	return rng.r.Intn(limit)
}

// Shuffle randomly permutes n elements through the swap callback.
func (rng *Random) Shuffle(n int, swap func(i, j int)) {
	rng.r.Shuffle(n, swap)
}
