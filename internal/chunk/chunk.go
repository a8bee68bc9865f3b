// Package chunk sorts one bounded region of elements.
package chunk

import (
	"fmt"
	"slices"
	"sync"

	sorterrors "github.com/tamirms/longsort/errors"
	"github.com/tamirms/longsort/internal/view"
)

// bufPool holds *[]int64 scratch buffers, one per concurrently running sorter.
var bufPool = sync.Pool{
	New: func() any { return new([]int64) },
}

// Sort copies the remaining elements of in into a transient buffer, sorts
// them ascending, and writes them to out starting at out's cursor. Afterwards
// out's cursor is back where it started, so the region reads as untouched in
// metadata but sorted in content; in is fully consumed.
//
// in and out may alias. Sort performs no synchronization: concurrent calls
// are safe only over disjoint regions.
func Sort(in, out *view.View) error {
	if in.Remaining() != out.Remaining() {
		return fmt.Errorf("%w: sort %v: input has %d elements, output %d",
			sorterrors.ErrInconsistent, in.Split(), in.Remaining(), out.Remaining())
	}
	n := in.Remaining()
	if n == 0 {
		return nil
	}

	bp := bufPool.Get().(*[]int64)
	defer bufPool.Put(bp)
	if cap(*bp) < n {
		*bp = make([]int64, n)
	}
	buf := (*bp)[:n]

	copy(buf, in.Rest())
	in.Skip(n)
	slices.Sort(buf)

	start := out.Pos()
	out.Write(buf)
	out.Rewind()
	out.Skip(start)
	return nil
}
