// Package bits maps hashes onto bounded ranges.
package bits

import "math/bits"

// FastRange64 maps a 64-bit hash to [0, n) by taking the high word of the
// 128-bit product hash*n. The result is monotone in hash and needs no
// division. Returns 0 when n is 0.
func FastRange64(hash, n uint64) uint64 {
	hi, _ := bits.Mul64(hash, n)
	return hi
}
