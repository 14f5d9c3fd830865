//go:build !linux && !windows

package timing

import "time"

func clockTicks() int64 { return fallbackTicks() }

func clockFrequency() int64 { return int64(time.Second) }
