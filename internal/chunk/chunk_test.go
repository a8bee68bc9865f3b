package chunk

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	sorterrors "github.com/tamirms/longsort/errors"
	"github.com/tamirms/longsort/internal/view"
)

func TestSortProducesAscendingPermutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for _, n := range []int{0, 1, 2, 7, 1000, 65_537} {
		in := make([]int64, n)
		for i := range in {
			// Narrow range forces duplicates.
			in[i] = rng.Int64N(200) - 100
		}
		orig := slices.Clone(in)
		out := make([]int64, n)

		inView, outView := view.FromSlice(in), view.FromSlice(out)
		if err := Sort(inView, outView); err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if !slices.IsSorted(out) {
			t.Fatalf("n=%d: output not sorted", n)
		}
		want := slices.Clone(orig)
		slices.Sort(want)
		if !slices.Equal(out, want) {
			t.Fatalf("n=%d: output is not a permutation of the input", n)
		}
		if !slices.Equal(in, orig) {
			t.Fatalf("n=%d: input modified", n)
		}
		if outView.Pos() != 0 {
			t.Fatalf("n=%d: output cursor at %d, want 0", n, outView.Pos())
		}
		if inView.HasRemaining() {
			t.Fatalf("n=%d: input not consumed", n)
		}
	}
}

func TestSortInPlace(t *testing.T) {
	vals := []int64{5, 3, 3, 1, 4}
	v := view.FromSlice(vals)
	if err := Sort(v, view.FromSlice(vals)); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(vals, []int64{1, 3, 3, 4, 5}) {
		t.Fatalf("got %v", vals)
	}
}

func TestSortRestoresOffsetCursor(t *testing.T) {
	out := view.FromSlice(make([]int64, 5))
	out.Skip(2)
	if err := Sort(view.FromSlice([]int64{9, -9, 0}), out); err != nil {
		t.Fatal(err)
	}
	if out.Pos() != 2 {
		t.Fatalf("cursor at %d, want 2", out.Pos())
	}
	if !slices.Equal(out.Elements(), []int64{0, 0, -9, 0, 9}) {
		t.Fatalf("got %v", out.Elements())
	}
}

func TestSortLengthMismatch(t *testing.T) {
	err := Sort(view.FromSlice(make([]int64, 3)), view.FromSlice(make([]int64, 4)))
	if !errors.Is(err, sorterrors.ErrInconsistent) {
		t.Fatalf("got %v, want ErrInconsistent", err)
	}
}
