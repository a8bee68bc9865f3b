package longsort

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/tamirms/longsort/internal/encoding"
)

// newTestRNG returns a PCG seeded from the test name, so every test draws
// its own reproducible sequence.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(sum[:8]), binary.LittleEndian.Uint64(sum[8:])))
}

// randomValues draws n values from [-valueRange/2, valueRange/2). A small
// range produces heavy duplication.
func randomValues(rng *rand.Rand, n int, valueRange int64) []int64 {
	vals := make([]int64, n)
	for i := range vals {
		vals[i] = rng.Int64N(valueRange) - valueRange/2
	}
	return vals
}

// writeValues writes vals as an element file named name under dir.
func writeValues(t testing.TB, dir, name string, vals []int64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, encoding.Append(nil, vals...), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// readValues reads an element file back.
func readValues(t testing.TB, path string) []int64 {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(data)%ElemSize != 0 {
		t.Fatalf("%s: %d bytes is not a whole number of elements", path, len(data))
	}
	vals := make([]int64, len(data)/ElemSize)
	for i := range vals {
		vals[i] = encoding.Int64(data[i*ElemSize:])
	}
	return vals
}

// sortValues writes vals to a temp input, sorts it, and returns the output
// contents and the run statistics.
func sortValues(t *testing.T, vals []int64, opts ...Option) ([]int64, Result) {
	t.Helper()
	dir := t.TempDir()
	input := writeValues(t, dir, "input.bin", vals)
	output := filepath.Join(dir, "output.bin")

	res, err := Sort(context.Background(), input, output, opts...)
	if err != nil {
		t.Fatalf("Sort error: %v", err)
	}
	return readValues(t, output), res
}

// requireSortedPermutation fails unless got is vals in ascending order.
func requireSortedPermutation(t *testing.T, vals, got []int64) {
	t.Helper()
	want := slices.Clone(vals)
	slices.Sort(want)
	if len(got) != len(want) {
		t.Fatalf("output has %d elements, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("output[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

// requireNotExist fails if path exists.
func requireNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		t.Fatalf("%s should not exist (stat err: %v)", path, err)
	}
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("%s not empty: %v", dir, entries)
	}
}

// memoryForChunks returns a memory limit under which the budget solver picks
// at most chunks chunks for n elements, and exactly chunks when the per-chunk
// byte counts of chunks-1 and chunks differ.
func memoryForChunks(n, workers, chunks int) int64 {
	return int64(n*ElemSize/chunks) * int64(workers)
}
