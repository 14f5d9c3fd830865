package timing

import (
	"time"

	"golang.org/x/sys/unix"
)

func clockTicks() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return fallbackTicks()
	}
	return ts.Nano()
}

func clockFrequency() int64 { return int64(time.Second) }
