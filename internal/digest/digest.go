// Package digest fingerprints element sequences.
//
// A Multiset digest is order-independent: it sums a 64-bit hash of each
// element, so a permutation of the same values yields the same digest. It
// detects lost, duplicated, or corrupted elements across a sort with high
// probability, but not reordering. Summarize also streams an order-dependent
// xxHash64 of the raw bytes and reports whether the sequence is ascending.
package digest

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/xxh3"

	sorterrors "github.com/tamirms/longsort/errors"
	"github.com/tamirms/longsort/internal/encoding"
)

// readBufferSize is the read granularity of Summarize.
const readBufferSize = 1 << 20

// Multiset is an order-independent digest of a collection of elements.
// The zero value is the digest of the empty collection.
type Multiset struct {
	Sum   uint64
	Count int64
}

// Add folds vals into the digest.
func (m *Multiset) Add(vals []int64) {
	var buf [encoding.ElemSize]byte
	for _, v := range vals {
		encoding.PutInt64(buf[:], v)
		m.Sum += xxh3.Hash(buf[:])
	}
	m.Count += int64(len(vals))
}

// Merge folds another digest into m.
func (m *Multiset) Merge(o Multiset) {
	m.Sum += o.Sum
	m.Count += o.Count
}

func (m Multiset) String() string {
	return fmt.Sprintf("%016x/%d", m.Sum, m.Count)
}

// Of returns the digest of vals.
func Of(vals []int64) Multiset {
	var m Multiset
	m.Add(vals)
	return m
}

// Summary describes a stream of elements.
type Summary struct {
	Elements int64
	Content  uint64 // xxHash64 of the raw bytes, order-dependent
	Multiset Multiset
	Sorted   bool
	// FirstDescent is the index of the first element smaller than its
	// predecessor, or -1 when Sorted.
	FirstDescent int64
}

// Summarize reads r to EOF. The stream length must be a multiple of the
// element size.
func Summarize(r io.Reader) (Summary, error) {
	s := Summary{Sorted: true, FirstDescent: -1}
	h := xxhash.New()
	br := bufio.NewReaderSize(r, readBufferSize)
	buf := make([]byte, readBufferSize)

	var prev int64
	for {
		n, err := io.ReadFull(br, buf)
		if n%encoding.ElemSize != 0 && (err == io.ErrUnexpectedEOF || err == io.EOF) {
			return s, sorterrors.ErrMisalignedInput
		}
		if n > 0 {
			chunk := buf[:n]
			_, _ = h.Write(chunk)
			vals := encoding.Int64s(chunk)
			s.Multiset.Add(vals)
			for i, v := range vals {
				if s.Sorted && s.Elements+int64(i) > 0 && v < prev {
					s.Sorted = false
					s.FirstDescent = s.Elements + int64(i)
				}
				prev = v
			}
			s.Elements += int64(len(vals))
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return s, fmt.Errorf("%w: %w", sorterrors.ErrIO, err)
		}
	}
	s.Content = h.Sum64()
	return s, nil
}
