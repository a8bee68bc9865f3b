// Package split partitions a flat array of fixed-width elements into
// contiguous, non-overlapping ranges and pairs adjacent ranges for merging.
package split

import "fmt"

// ElemSize is the width in bytes of one element.
const ElemSize = 8

// Split is a contiguous range of elements [Start, Start+Count).
// When it describes a sorted run, the elements in that range are ascending.
type Split struct {
	Start int64
	Count int64
}

// BytePos returns the byte offset of the first element.
func (s Split) BytePos() int64 { return s.Start * ElemSize }

// ByteSize returns the length of the range in bytes.
func (s Split) ByteSize() int64 { return s.Count * ElemSize }

// End returns the index one past the last element.
func (s Split) End() int64 { return s.Start + s.Count }

func (s Split) String() string {
	return fmt.Sprintf("[%d,+%d)", s.Start, s.Count)
}

// Create divides total elements into exactly n contiguous splits.
//
// Every split but the last holds ceil(total/n) elements and the last holds
// the remainder. When n is large relative to total, ceil(total/n)*(n-1) can
// exceed total; the trailing splits are then clamped to whatever is left,
// down to zero elements, so the sum and contiguity invariants still hold.
//
// Panics if total < 0 or n < 1.
func Create(total int64, n int) []Split {
	if total < 0 {
		panic("split: negative element count")
	}
	if n < 1 {
		panic("split: split count must be at least 1")
	}

	size := total / int64(n)
	if total%int64(n) != 0 {
		size++
	}

	splits := make([]Split, n)
	var start int64
	for i := range splits {
		count := size
		if i == n-1 || start+count > total {
			count = total - start
		}
		splits[i] = Split{Start: start, Count: count}
		start += count
	}
	return splits
}

// Pair is one unit of merge work. Right is nil when Left is carried into the
// next round without a partner.
type Pair struct {
	Left  Split
	Right *Split
}

// Merged returns the split covering both halves of the pair.
func (p Pair) Merged() Split {
	if p.Right == nil {
		return p.Left
	}
	return Split{Start: p.Left.Start, Count: p.Left.Count + p.Right.Count}
}

// Runs returns the pair's members in ascending order.
func (p Pair) Runs() []Split {
	if p.Right == nil {
		return []Split{p.Left}
	}
	return []Split{p.Left, *p.Right}
}

// Group pairs adjacent runs for the next merge round. Runs must be contiguous
// and ordered by Start. When the count is odd the first run is emitted alone
// and the rest are paired from the front; later rounds rely on this.
func Group(runs []Split) ([]Pair, error) {
	if err := CheckContiguous(runs); err != nil {
		return nil, err
	}
	pairs := make([]Pair, 0, (len(runs)+1)/2)
	i := 0
	if len(runs)%2 == 1 {
		pairs = append(pairs, Pair{Left: runs[0]})
		i = 1
	}
	for ; i+1 < len(runs); i += 2 {
		right := runs[i+1]
		pairs = append(pairs, Pair{Left: runs[i], Right: &right})
	}
	return pairs, nil
}

// Merge returns the run set produced by merging every pair.
func Merge(pairs []Pair) []Split {
	out := make([]Split, len(pairs))
	for i, p := range pairs {
		out[i] = p.Merged()
	}
	return out
}

// CheckContiguous reports an error unless runs is non-empty, ordered, and
// free of gaps and overlaps.
func CheckContiguous(runs []Split) error {
	if len(runs) == 0 {
		return fmt.Errorf("split: no runs")
	}
	for i, r := range runs {
		if r.Start < 0 || r.Count < 0 {
			return fmt.Errorf("split: run %d %v has negative bounds", i, r)
		}
		if i > 0 && runs[i-1].End() != r.Start {
			return fmt.Errorf("split: run %d %v does not follow %v", i, r, runs[i-1])
		}
	}
	return nil
}

// Total returns the number of elements covered by runs.
func Total(runs []Split) int64 {
	var n int64
	for _, r := range runs {
		n += r.Count
	}
	return n
}
