package encoding

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// TestInt64sMatchesSafeDecode checks the aliasing view agrees with
// element-by-element decoding in native order.
func TestInt64sMatchesSafeDecode(t *testing.T) {
	rng := newTestRNG(t)
	vals := make([]int64, 257)
	for i := range vals {
		vals[i] = int64(rng.Uint64())
	}
	buf := Append(nil, vals...)
	if len(buf) != len(vals)*ElemSize {
		t.Fatalf("Append produced %d bytes", len(buf))
	}

	view := Int64s(buf)
	if !slices.Equal(view, vals) {
		t.Fatal("Int64s does not match appended values")
	}
	for i, v := range vals {
		if got := Int64(buf[i*ElemSize:]); got != v {
			t.Fatalf("Int64 at %d = %d, want %d", i, got, v)
		}
	}
}

func TestInt64sAliases(t *testing.T) {
	buf := make([]byte, 3*ElemSize)
	view := Int64s(buf)
	view[1] = -42
	if got := Int64(buf[ElemSize:]); got != -42 {
		t.Fatalf("write through view not visible in bytes: got %d", got)
	}
	PutInt64(buf[2*ElemSize:], 7)
	if view[2] != 7 {
		t.Fatalf("write through bytes not visible in view: got %d", view[2])
	}
	if b := Bytes(view); &b[0] != &buf[0] || len(b) != len(buf) {
		t.Fatal("Bytes does not alias the original buffer")
	}
}

func TestInt64sEmpty(t *testing.T) {
	if Int64s(nil) != nil || Bytes(nil) != nil {
		t.Fatal("empty conversions must return nil")
	}
}

func TestInt64sPanicsOnMisalignedLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Int64s(make([]byte, 12))
}
