// Package datagen produces reproducible element files for the CLI, tests,
// and benchmarks.
package datagen

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/spaolacci/murmur3"

	sorterrors "github.com/tamirms/longsort/errors"
	"github.com/tamirms/longsort/internal/bits"
	"github.com/tamirms/longsort/internal/encoding"
)

// Order is the arrangement of generated values.
type Order int

const (
	Random Order = iota
	Ascending
	Descending
	Constant
)

var orderNames = [...]string{Random: "random", Ascending: "ascending", Descending: "descending", Constant: "constant"}

func (o Order) String() string {
	if o < 0 || int(o) >= len(orderNames) {
		return "unknown"
	}
	return orderNames[o]
}

// ParseOrder returns the order with the given name.
func ParseOrder(name string) (Order, error) {
	for o, n := range orderNames {
		if n == name {
			return Order(o), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown order %q", sorterrors.ErrInvalidOption, name)
}

// Config describes a generated sequence.
type Config struct {
	Count int64
	Seed  uint32
	// Span limits Random values to [-Span/2, Span/2). Zero or anything
	// above 1<<63 uses the full int64 range.
	Span  uint64
	Order Order
}

// writeBatch is how many elements are encoded per write.
const writeBatch = 1 << 16

// Value returns element i of a Random sequence.
func Value(i uint64, seed uint32, span uint64) int64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], i)
	h := murmur3.Sum64WithSeed(buf[:], seed)
	if span == 0 || span > 1<<63 {
		return int64(h)
	}
	return int64(bits.FastRange64(h, span)) - int64(span/2)
}

// At returns element i of the sequence cfg describes.
func (cfg Config) At(i int64) int64 {
	switch cfg.Order {
	case Ascending:
		return i - cfg.Count/2
	case Descending:
		return cfg.Count/2 - i
	case Constant:
		return Value(0, cfg.Seed, cfg.Span)
	default:
		return Value(uint64(i), cfg.Seed, cfg.Span)
	}
}

// Values returns the whole sequence in memory.
func (cfg Config) Values() []int64 {
	vals := make([]int64, cfg.Count)
	for i := range vals {
		vals[i] = cfg.At(int64(i))
	}
	return vals
}

// Write streams the sequence to w.
func Write(w io.Writer, cfg Config) error {
	if cfg.Count < 0 {
		return fmt.Errorf("%w: negative count %d", sorterrors.ErrInvalidOption, cfg.Count)
	}
	bw := bufio.NewWriterSize(w, writeBatch*encoding.ElemSize)
	buf := make([]byte, 0, writeBatch*encoding.ElemSize)
	for start := int64(0); start < cfg.Count; start += writeBatch {
		end := min(start+writeBatch, cfg.Count)
		buf = buf[:0]
		for i := start; i < end; i++ {
			buf = encoding.Append(buf, cfg.At(i))
		}
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("%w: %w", sorterrors.ErrIO, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", sorterrors.ErrIO, err)
	}
	return nil
}

// WriteFile creates path, failing if it exists, and writes the sequence.
func WriteFile(path string, cfg Config) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", sorterrors.ErrIO, err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("%w: %w", sorterrors.ErrIO, closeErr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return Write(f, cfg)
}
