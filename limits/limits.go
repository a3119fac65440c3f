// Package limits tracks kernel-wide resource ceilings, in the style of
// biscuit's Syslimit_t (biscuit/src/limits/limits.go).
package limits

// Syslimit_t bounds the core's resource usage. Unlike biscuit's limits,
// which track live kernel-wide counters, these are static ceilings.
// Only MaxThreadsPerProc is checked, by proc's CreateThread; the other
// ceilings are not enforced anywhere.
type Syslimit_t struct {
	MaxProcs        int // maximum live processes
	MaxThreadsPerProc int // maximum threads per process
	MaxFds          int // maximum open file descriptors per process
	MaxMutexes      int // maximum mutex_list entries per process
	MaxSemaphores   int // maximum semaphore_list entries per process
	MaxCondvars     int // maximum condvar_list entries per process
}

// Syslimit holds the active ceilings.
var Syslimit = MkSysLimit()

// MkSysLimit returns the default set of limits.
func MkSysLimit() *Syslimit_t {
	return &Syslimit_t{
		MaxProcs:          4096,
		MaxThreadsPerProc: 64,
		MaxFds:            256,
		MaxMutexes:        256,
		MaxSemaphores:     256,
		MaxCondvars:       256,
	}
}
