//go:build linux

package budget

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const maxMapCountPath = "/proc/sys/vm/max_map_count"

// physicalMemory returns total RAM in bytes via sysinfo(2), or 0 on failure.
func physicalMemory() int64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	return int64(info.Totalram) * int64(info.Unit)
}

// platformMapCeiling reads vm.max_map_count, or returns 0 if unavailable.
func platformMapCeiling() int {
	data, err := os.ReadFile(maxMapCountPath)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
