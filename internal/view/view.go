// Package view provides exclusively-owned cursors over int64 regions of a
// file.
//
// A View is a window [pos, limit) over the elements of one split. Views are
// not safe for concurrent use; a View is owned by exactly one goroutine at a
// time and its cursor is never shared. Disjoint views over the same file may
// be used concurrently.
package view

import (
	"errors"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	sorterrors "github.com/tamirms/longsort/errors"
	"github.com/tamirms/longsort/internal/encoding"
	"github.com/tamirms/longsort/internal/split"
)

// Mode selects the access a mapped view is opened with.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

// View is a cursor over a contiguous run of int64 elements.
type View struct {
	mm    mmap.MMap // nil for slice-backed and empty views
	data  []int64   // the split's elements; aliases mm
	pos   int
	split split.Split
	mode  Mode
}

// Map maps split s of f. The mapping starts at the page boundary at or below
// the split's first byte; data aliases the split itself. Zero-length splits
// are not mapped.
func Map(f *os.File, s split.Split, mode Mode) (*View, error) {
	v := &View{split: s, mode: mode}
	if s.Count == 0 {
		return v, nil
	}

	pageSize := int64(os.Getpagesize())
	base := s.BytePos() - s.BytePos()%pageSize
	delta := int(s.BytePos() - base)
	length := delta + int(s.ByteSize())

	prot := mmap.RDONLY
	if mode == ReadWrite {
		prot = mmap.RDWR
	}
	mm, err := mmap.MapRegion(f, length, prot, 0, base)
	if err != nil {
		return nil, fmt.Errorf("%w: map %s %v: %w", sorterrors.ErrIO, f.Name(), s, err)
	}
	v.mm = mm
	v.data = encoding.Int64s(mm[delta:length])

	if mode == ReadOnly {
		adviseSequential(mm)
	}
	return v, nil
}

// Prefault asks the kernel to populate a writable mapping up front so that
// concurrent writers do not serialize on page faults. Best-effort.
func (v *View) Prefault() {
	if v.mm != nil && v.mode == ReadWrite {
		prefaultRegion(v.mm)
	}
}

// FromSlice returns a view over vals, which it aliases. Used for in-memory
// runs and tests.
func FromSlice(vals []int64) *View {
	return &View{
		data:  vals,
		split: split.Split{Count: int64(len(vals))},
		mode:  ReadWrite,
	}
}

// Split returns the range of the backing file this view covers.
func (v *View) Split() split.Split { return v.split }

// Len returns the total number of elements in the view.
func (v *View) Len() int { return len(v.data) }

// Pos returns the cursor position relative to the start of the view.
func (v *View) Pos() int { return v.pos }

// Remaining returns the number of elements between the cursor and the limit.
func (v *View) Remaining() int { return len(v.data) - v.pos }

// HasRemaining reports whether any elements lie past the cursor.
func (v *View) HasRemaining() bool { return v.pos < len(v.data) }

// Peek returns the element at the cursor without advancing.
func (v *View) Peek() int64 { return v.data[v.pos] }

// Next returns the element at the cursor and advances past it.
func (v *View) Next() int64 {
	x := v.data[v.pos]
	v.pos++
	return x
}

// Put writes x at the cursor and advances.
func (v *View) Put(x int64) {
	v.data[v.pos] = x
	v.pos++
}

// Rest returns the elements from the cursor to the limit. The slice aliases
// the view; advancing is done separately with Skip.
func (v *View) Rest() []int64 { return v.data[v.pos:] }

// Skip advances the cursor by n elements.
func (v *View) Skip(n int) {
	if n < 0 || n > v.Remaining() {
		panic("view: skip out of range")
	}
	v.pos += n
}

// Write copies vals to the cursor and advances. Panics if vals does not fit.
func (v *View) Write(vals []int64) {
	if len(vals) > v.Remaining() {
		panic("view: write past limit")
	}
	v.pos += copy(v.data[v.pos:], vals)
}

// Drain copies every remaining element of src to v's cursor, advancing both.
func (v *View) Drain(src *View) {
	v.Write(src.Rest())
	src.pos = len(src.data)
}

// Elements returns the whole region regardless of the cursor.
func (v *View) Elements() []int64 { return v.data }

// Rewind moves the cursor back to the start of the view.
func (v *View) Rewind() { v.pos = 0 }

// Close unmaps the view. Idempotent. The view must not be used afterwards.
func (v *View) Close() error {
	if v.mm == nil {
		v.data = nil
		return nil
	}
	err := v.mm.Unmap()
	v.mm = nil
	v.data = nil
	if err != nil {
		return fmt.Errorf("%w: unmap %v: %w", sorterrors.ErrIO, v.split, err)
	}
	return nil
}

// CloseAll closes every view, joining any errors.
func CloseAll(views ...*View) error {
	var errs []error
	for _, v := range views {
		if v != nil {
			errs = append(errs, v.Close())
		}
	}
	return errors.Join(errs...)
}
