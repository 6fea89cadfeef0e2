// Package hostclock exposes the runtime's raw monotonic clock for
// driving the timer device model on a development host.
package hostclock

import (
	_ "unsafe" // for go:linkname
)

const (
	ovhdCnt = 10000
)

// Cheaper than time.Now(): a single int64, no time.Time construction.
//
//go:linkname nanotime runtime.nanotime
func nanotime() int64

// Nanotime returns the monotonic clock reading in nanoseconds from an
// arbitrary epoch.
func Nanotime() int64 {
	return nanotime()
}

// Overhead estimates the cost of one Nanotime read in nanoseconds as
// the minimum delta over a fixed number of back-to-back reads.
func Overhead() int64 {
	ovhd := int64(1<<63 - 1)

	for i := 0; i < ovhdCnt; i++ {
		ns0 := Nanotime()
		delta := Nanotime() - ns0
		if delta < ovhd {
			ovhd = delta
		}
	}

	return ovhd
}
