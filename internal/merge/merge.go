// Package merge combines pre-sorted runs into one ascending run.
//
// Three strategies share one contract:
//
//   - every input run is ascending, and the runs together hold exactly as
//     many elements as the output view has room for;
//   - the output cursor starts at the beginning of its view;
//   - on success the output is full and ascending, it holds the multiset
//     union of the runs, and every run is drained.
//
// Whichever strategy is selected, once a single run still has elements the
// rest of it is bulk-copied to the output.
package merge

import (
	"context"
	"fmt"
	"slices"

	sorterrors "github.com/tamirms/longsort/errors"
	"github.com/tamirms/longsort/internal/view"
)

// StrategyID identifies a merge strategy.
type StrategyID uint8

const (
	// StrategyHeap keeps a min-heap of runs keyed by head element and emits
	// one element per heap operation. O(N log K).
	StrategyHeap StrategyID = iota

	// StrategyPairwise merges at most two runs with a tight head-to-head
	// loop, copying stretches of one run in bulk while they stay below the
	// other run's head.
	StrategyPairwise

	// StrategyBatched pulls up to BatchSize elements per run into a resident
	// buffer and keys the heap by buffer heads, emitting every buffered
	// element that does not exceed the next-smallest head per heap operation.
	StrategyBatched
)

// DefaultBatchSize is the per-run buffer length of StrategyBatched.
const DefaultBatchSize = 4096

// MaxBatchSize caps the per-run buffer length: 128 MiB of elements per run.
const MaxBatchSize = 1 << 24

// contextCheckInterval is how many output elements are produced between
// context cancellation checks.
const contextCheckInterval = 1 << 16

// String returns the strategy name.
func (s StrategyID) String() string {
	switch s {
	case StrategyHeap:
		return "heap"
	case StrategyPairwise:
		return "pairwise"
	case StrategyBatched:
		return "batched"
	default:
		return "unknown"
	}
}

// ParseStrategy returns the strategy with the given name.
func ParseStrategy(name string) (StrategyID, error) {
	for _, s := range []StrategyID{StrategyHeap, StrategyPairwise, StrategyBatched} {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown merge strategy %q", sorterrors.ErrInvalidOption, name)
}

// Config selects and tunes a strategy.
type Config struct {
	Strategy  StrategyID
	BatchSize int // StrategyBatched only; <= 0 means DefaultBatchSize
}

// Run merges runs into out using the configured strategy and checks the
// structural pre- and post-conditions (cursor positions and element counts).
// Ordering of the output is checked separately with CheckAscending.
func Run(ctx context.Context, cfg Config, runs []*view.View, out *view.View) error {
	if err := checkPreconditions(runs, out); err != nil {
		return err
	}

	var err error
	switch cfg.Strategy {
	case StrategyHeap:
		err = mergeHeap(ctx, runs, out)
	case StrategyPairwise:
		err = mergePairwise(ctx, runs, out)
	case StrategyBatched:
		batch := cfg.BatchSize
		if batch <= 0 {
			batch = DefaultBatchSize
		}
		if batch > MaxBatchSize {
			return fmt.Errorf("%w: batch size %d exceeds %d", sorterrors.ErrInvalidOption, batch, MaxBatchSize)
		}
		err = mergeBatched(ctx, runs, out, batch)
	default:
		err = fmt.Errorf("%w: merge strategy %d", sorterrors.ErrInvalidOption, cfg.Strategy)
	}
	if err != nil {
		return err
	}
	return checkPostconditions(runs, out)
}

func checkPreconditions(runs []*view.View, out *view.View) error {
	if out.Pos() != 0 {
		return fmt.Errorf("%w: merge into %v: output cursor at %d, want 0",
			sorterrors.ErrInconsistent, out.Split(), out.Pos())
	}
	total := 0
	for _, r := range runs {
		total += r.Remaining()
	}
	if total != out.Remaining() {
		return fmt.Errorf("%w: merge into %v: runs hold %d elements, output has room for %d",
			sorterrors.ErrInconsistent, out.Split(), total, out.Remaining())
	}
	return nil
}

func checkPostconditions(runs []*view.View, out *view.View) error {
	if out.HasRemaining() {
		return fmt.Errorf("%w: merge into %v: %d output elements unwritten",
			sorterrors.ErrInconsistent, out.Split(), out.Remaining())
	}
	for _, r := range runs {
		if r.HasRemaining() {
			return fmt.Errorf("%w: merge into %v: run %v has %d elements left",
				sorterrors.ErrInconsistent, out.Split(), r.Split(), r.Remaining())
		}
	}
	return nil
}

// CheckAscending returns ErrInconsistent if vals is not in ascending order.
func CheckAscending(vals []int64) error {
	if slices.IsSorted(vals) {
		return nil
	}
	for i := 1; i < len(vals); i++ {
		if vals[i-1] > vals[i] {
			return fmt.Errorf("%w: element %d (%d) precedes smaller element %d (%d)",
				sorterrors.ErrInconsistent, i-1, vals[i-1], i, vals[i])
		}
	}
	return nil
}

// mergeHeap is the single-element min-heap merge.
func mergeHeap(ctx context.Context, runs []*view.View, out *view.View) error {
	h := newRunHeap(len(runs))
	for i, r := range runs {
		if r.HasRemaining() {
			h.push(i, r.Peek())
		}
	}

	emitted := 0
	for h.len() > 1 {
		r := runs[h.top()]
		out.Put(r.Next())
		if r.HasRemaining() {
			h.replaceTop(r.Peek())
		} else {
			h.pop()
		}

		emitted++
		if emitted == contextCheckInterval {
			emitted = 0
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	if h.len() == 1 {
		out.Drain(runs[h.top()])
	}
	return nil
}

// mergePairwise merges one or two runs head to head.
func mergePairwise(ctx context.Context, runs []*view.View, out *view.View) error {
	switch len(runs) {
	case 0:
		return nil
	case 1:
		out.Drain(runs[0])
		return nil
	case 2:
	default:
		return fmt.Errorf("%w: pairwise merge takes at most 2 runs, got %d",
			sorterrors.ErrInconsistent, len(runs))
	}

	a, b := runs[0], runs[1]
	emitted := 0
	for a.HasRemaining() && b.HasRemaining() {
		ra, rb := a.Rest(), b.Rest()
		var n int
		if ra[0] <= rb[0] {
			// Copy a's stretch that does not exceed b's head.
			bh := rb[0]
			n = 1
			for n < len(ra) && ra[n] <= bh {
				n++
			}
			out.Write(ra[:n])
			a.Skip(n)
		} else {
			ah := ra[0]
			n = 1
			for n < len(rb) && rb[n] < ah {
				n++
			}
			out.Write(rb[:n])
			b.Skip(n)
		}

		emitted += n
		if emitted >= contextCheckInterval {
			emitted = 0
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	out.Drain(a)
	out.Drain(b)
	return nil
}

// mergeBatched is the chunk-of-chunks heap merge. Each active run holds up to
// batch elements resident; a heap operation emits the whole stretch of the
// top buffer that does not exceed the next-smallest head.
func mergeBatched(ctx context.Context, runs []*view.View, out *view.View, batch int) error {
	backing := make([]int64, batch*len(runs))
	bufs := make([][]int64, len(runs))

	// fill loads the next batch of run i into its buffer.
	fill := func(i int) bool {
		r := runs[i]
		n := min(batch, r.Remaining())
		if n == 0 {
			bufs[i] = nil
			return false
		}
		buf := backing[i*batch : i*batch+n]
		copy(buf, r.Rest())
		r.Skip(n)
		bufs[i] = buf
		return true
	}

	h := newRunHeap(len(runs))
	for i := range runs {
		if fill(i) {
			h.push(i, bufs[i][0])
		}
	}

	emitted := 0
	for h.len() > 1 {
		i := h.top()
		buf := bufs[i]
		limit, _ := h.next()
		n := 1
		for n < len(buf) && buf[n] <= limit {
			n++
		}
		out.Write(buf[:n])
		buf = buf[n:]
		bufs[i] = buf

		if len(buf) > 0 || fill(i) {
			h.replaceTop(bufs[i][0])
		} else {
			h.pop()
		}

		emitted += n
		if emitted >= contextCheckInterval {
			emitted = 0
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	if h.len() == 1 {
		i := h.top()
		out.Write(bufs[i])
		bufs[i] = nil
		out.Drain(runs[i])
	}
	return nil
}
