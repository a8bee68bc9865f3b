//go:build !linux

package view

// prefaultRegion is a no-op on non-Linux platforms.
// MADV_POPULATE_WRITE is Linux 5.14+ specific.
func prefaultRegion(data []byte) {}

// adviseSequential is a no-op on non-Linux platforms.
func adviseSequential(data []byte) {}
