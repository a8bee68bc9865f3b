package bits

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"testing"
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(sum[:8]), binary.LittleEndian.Uint64(sum[8:])))
}

func TestFastRange64(t *testing.T) {
	rng := newTestRNG(t)
	for i := range 10000 {
		n := rng.Uint64N(math.MaxUint64) + 1
		h1, h2 := rng.Uint64(), rng.Uint64()
		if h1 > h2 {
			h1, h2 = h2, h1
		}
		r1, r2 := FastRange64(h1, n), FastRange64(h2, n)
		if r1 >= n || r2 >= n {
			t.Fatalf("iter %d: result out of range for n=%d: %d, %d", i, n, r1, r2)
		}
		if r1 > r2 {
			t.Fatalf("iter %d: not monotone: FastRange64(%#x)=%d > FastRange64(%#x)=%d", i, h1, r1, h2, r2)
		}
	}
}

func TestFastRange64Edges(t *testing.T) {
	tests := []struct {
		hash, n, want uint64
	}{
		{math.MaxUint64, 0, 0},
		{math.MaxUint64, 1, 0},
		{math.MaxUint64, 10, 9},
		{0, 10, 0},
		{1 << 63, 10, 5},
		{1 << 63, math.MaxUint64, 1<<63 - 1},
	}
	for _, tc := range tests {
		if got := FastRange64(tc.hash, tc.n); got != tc.want {
			t.Errorf("FastRange64(%#x, %d) = %d, want %d", tc.hash, tc.n, got, tc.want)
		}
	}
}

// TestFastRange64Uniform checks buckets fill evenly for a small n.
func TestFastRange64Uniform(t *testing.T) {
	rng := newTestRNG(t)
	const n, draws = 8, 80000
	var counts [n]int
	for range draws {
		counts[FastRange64(rng.Uint64(), n)]++
	}
	for i, c := range counts {
		if c < draws/n*9/10 || c > draws/n*11/10 {
			t.Fatalf("bucket %d has %d of %d draws", i, c, draws)
		}
	}
}
