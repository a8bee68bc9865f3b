// Package encoding converts between raw file bytes and int64 elements.
//
// Files hold elements in native byte order with no framing, so a mapped
// region can be reinterpreted in place. Int64s and Bytes alias their
// argument; neither copies.
package encoding

import (
	"encoding/binary"
	"unsafe"
)

// ElemSize is the width of one element in bytes.
const ElemSize = 8

// Int64s reinterprets b as a slice of native-order int64 values.
// len(b) must be a multiple of ElemSize and b must be 8-byte aligned;
// mapped regions starting at element boundaries of a page-aligned
// mapping satisfy both. Panics on a misaligned length.
func Int64s(b []byte) []int64 {
	if len(b)%ElemSize != 0 {
		panic("encoding: Int64s: length is not a multiple of 8")
	}
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(unsafe.SliceData(b))), len(b)/ElemSize)
}

// Bytes reinterprets v as its native-order byte representation.
func Bytes(v []int64) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(v))), len(v)*ElemSize)
}

// PutInt64 writes v into b[0:8] in native byte order.
func PutInt64(b []byte, v int64) {
	binary.NativeEndian.PutUint64(b, uint64(v))
}

// Int64 reads a native-order int64 from b[0:8].
func Int64(b []byte) int64 {
	return int64(binary.NativeEndian.Uint64(b))
}

// Append appends the native-order encoding of each value to dst.
func Append(dst []byte, vals ...int64) []byte {
	for _, v := range vals {
		dst = binary.NativeEndian.AppendUint64(dst, uint64(v))
	}
	return dst
}
