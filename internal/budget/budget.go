// Package budget decides how many chunks an input must be split into so that
// the sort phase stays within the available memory and the merge phase stays
// within the platform's ceiling on simultaneously open memory maps.
package budget

import (
	"fmt"
	"runtime/debug"

	sorterrors "github.com/tamirms/longsort/errors"
)

const (
	// DefaultMapCeiling is used when the platform's map ceiling is unknown.
	// Linux defaults vm.max_map_count to 65530.
	DefaultMapCeiling = 64000

	// mapsPerChunk divides the map ceiling into a chunk ceiling. A merge round
	// holds two input views and one output view per pair; the remaining
	// headroom leaves room for the runtime's own mappings. 64000/16 = 4000.
	mapsPerChunk = 16

	// MaxChunkCount is the chunk ceiling derived from DefaultMapCeiling.
	MaxChunkCount = DefaultMapCeiling / mapsPerChunk

	// reservedOverhead is kept back from the available-memory figure for
	// the runtime, merge buffers, and mapped page tables.
	reservedOverhead = 128 << 20

	// fallbackMemory is assumed when the environment cannot be queried.
	fallbackMemory = 1 << 30
)

// MaxChunkCountFor derives a chunk ceiling from a map ceiling.
func MaxChunkCountFor(mapCeiling int) int {
	if mapCeiling <= 0 {
		mapCeiling = DefaultMapCeiling
	}
	return max(1, mapCeiling/mapsPerChunk)
}

// MemoryUsed models peak resident memory during the sort phase: each of the
// concurrently running sorters holds one full chunk.
func MemoryUsed(workers int, inputBytes int64, chunks int) int64 {
	return (inputBytes / int64(chunks)) * int64(workers)
}

// ChunkCount returns the minimum chunk count C in [workers, maxChunks] with
// MemoryUsed(workers, inputBytes, C) <= available.
//
// MemoryUsed is non-increasing in C, so the search is a binary search for the
// first feasible count.
func ChunkCount(workers int, inputBytes, available int64, maxChunks int) (int, error) {
	if workers < 1 {
		return 0, fmt.Errorf("%w: worker count %d", sorterrors.ErrInvalidOption, workers)
	}
	if inputBytes < 0 {
		return 0, fmt.Errorf("%w: input size %d", sorterrors.ErrInvalidOption, inputBytes)
	}
	if workers > maxChunks {
		return 0, fmt.Errorf("%w: %d workers, at most %d chunks", sorterrors.ErrTooManyWorkers, workers, maxChunks)
	}

	lo, hi := workers, maxChunks
	for lo < hi {
		mid := lo + (hi-lo)/2
		if MemoryUsed(workers, inputBytes, mid) > available {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if used := MemoryUsed(workers, inputBytes, lo); used > available {
		return 0, fmt.Errorf("%w: %d bytes across %d workers needs %d bytes at %d chunks, %d available",
			sorterrors.ErrMemoryBudget, inputBytes, workers, used, lo, available)
	}
	return lo, nil
}

// Available returns the memory the sort phase may hold resident.
//
// A soft memory limit set through GOMEMLIMIT or debug.SetMemoryLimit wins;
// otherwise a quarter of physical memory is used. A fixed reserve is kept
// back in both cases.
func Available() int64 {
	total := int64(fallbackMemory)
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < 1<<62 {
		total = limit
	} else if phys := physicalMemory(); phys > 0 {
		total = phys / 4
	}
	if total <= reservedOverhead {
		return total / 2
	}
	return total - reservedOverhead
}

// MapCeiling returns the platform's ceiling on simultaneously open memory maps.
func MapCeiling() int {
	if n := platformMapCeiling(); n > 0 {
		return n
	}
	return DefaultMapCeiling
}
