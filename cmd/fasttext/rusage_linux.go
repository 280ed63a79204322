//go:build linux

package main

import "golang.org/x/sys/unix"

// peakRSSMB returns the process peak resident set size in megabytes,
// 0 when the kernel will not say.
func peakRSSMB() float64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	// ru_maxrss is in kilobytes on Linux.
	return float64(ru.Maxrss) / 1024
}
