package timing

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                      = windows.NewLazySystemDLL("kernel32.dll")
	procQueryPerformanceCounter   = kernel32.NewProc("QueryPerformanceCounter")
	procQueryPerformanceFrequency = kernel32.NewProc("QueryPerformanceFrequency")
)

// queryPerformance calls one of the QueryPerformance* functions, which
// return zero on failure.
func queryPerformance(proc *windows.LazyProc) (int64, bool) {
	if proc.Find() != nil {
		return 0, false
	}
	var v int64
	r, _, _ := proc.Call(uintptr(unsafe.Pointer(&v)))
	return v, r != 0
}

func clockTicks() int64 {
	c, ok := queryPerformance(procQueryPerformanceCounter)
	if !ok {
		return fallbackTicks()
	}
	return c
}

func clockFrequency() int64 {
	f, ok := queryPerformance(procQueryPerformanceFrequency)
	if !ok {
		return 0
	}
	return f
}
