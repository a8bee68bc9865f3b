package budget

import (
	"errors"
	"math/rand/v2"
	"testing"

	sorterrors "github.com/tamirms/longsort/errors"
)

func TestChunkCountNamedCases(t *testing.T) {
	tests := []struct {
		name      string
		workers   int
		input     int64
		available int64
		want      int
	}{
		{"fits_at_worker_count", 4, 1 << 20, 1 << 30, 4},
		{"empty_input", 3, 0, 1, 3},
		{"exact_fit", 2, 800, 400, 4},
		{"one_over", 2, 800, 399, 5},
		{"single_worker", 1, 1 << 30, 1 << 20, 1024},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ChunkCount(tc.workers, tc.input, tc.available, MaxChunkCount)
			if err != nil {
				t.Fatalf("ChunkCount: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ChunkCount(%d, %d, %d) = %d, want %d", tc.workers, tc.input, tc.available, got, tc.want)
			}
		})
	}
}

func TestChunkCountExhausted(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		_, err := ChunkCount(4, 1<<40, 1<<20, MaxChunkCount)
		if !errors.Is(err, sorterrors.ErrResourceExhausted) || !errors.Is(err, sorterrors.ErrMemoryBudget) {
			t.Fatalf("got %v, want ErrMemoryBudget", err)
		}
	})
	t.Run("workers", func(t *testing.T) {
		_, err := ChunkCount(MaxChunkCount+1, 8, 1<<30, MaxChunkCount)
		if !errors.Is(err, sorterrors.ErrResourceExhausted) || !errors.Is(err, sorterrors.ErrTooManyWorkers) {
			t.Fatalf("got %v, want ErrTooManyWorkers", err)
		}
	})
	t.Run("invalid_workers", func(t *testing.T) {
		_, err := ChunkCount(0, 8, 1<<30, MaxChunkCount)
		if !errors.Is(err, sorterrors.ErrValidation) {
			t.Fatalf("got %v, want ErrValidation", err)
		}
	})
}

// TestChunkCountIsMinimal checks the solver against a linear scan over random
// inputs: the result is feasible, in range, and no smaller count is feasible.
func TestChunkCountIsMinimal(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	const maxChunks = 300
	for range 3000 {
		workers := 1 + rng.IntN(32)
		input := rng.Int64N(1 << 24)
		available := 1 + rng.Int64N(1<<22)

		got, err := ChunkCount(workers, input, available, maxChunks)

		want := -1
		for c := workers; c <= maxChunks; c++ {
			if MemoryUsed(workers, input, c) <= available {
				want = c
				break
			}
		}

		if want < 0 {
			if !errors.Is(err, sorterrors.ErrResourceExhausted) {
				t.Fatalf("workers=%d input=%d available=%d: got (%d, %v), want ErrResourceExhausted",
					workers, input, available, got, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("workers=%d input=%d available=%d: %v", workers, input, available, err)
		}
		if got != want {
			t.Fatalf("workers=%d input=%d available=%d: got %d, want %d", workers, input, available, got, want)
		}
		if got < workers || got > maxChunks {
			t.Fatalf("chunk count %d outside [%d, %d]", got, workers, maxChunks)
		}
	}
}

func TestMaxChunkCountFor(t *testing.T) {
	if got := MaxChunkCountFor(65530); got != 4095 {
		t.Fatalf("MaxChunkCountFor(65530) = %d", got)
	}
	if got := MaxChunkCountFor(0); got != MaxChunkCount {
		t.Fatalf("MaxChunkCountFor(0) = %d, want %d", got, MaxChunkCount)
	}
	if got := MaxChunkCountFor(3); got != 1 {
		t.Fatalf("MaxChunkCountFor(3) = %d, want 1", got)
	}
}

func TestAvailableAndCeilingArePositive(t *testing.T) {
	if Available() <= 0 {
		t.Fatal("Available() must be positive")
	}
	if MapCeiling() <= 0 {
		t.Fatal("MapCeiling() must be positive")
	}
}
