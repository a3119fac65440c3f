// Package config loads boot-time kernel tunables from a TOML file,
// falling back to defaults matched to spec.md. TOML parsing is sourced
// from github.com/BurntSushi/toml, vendored by both gvisor-family repos
// in the retrieval pack for their own config surfaces.
package config

import "github.com/BurntSushi/toml"

// Boot holds the tunables the kernel needs before it can build its
// first address space and scheduler. The kernel reads DefaultPriority,
// DeadlockDetectDefault and TimeSliceMs; Image, BigStride and PageSize
// are decoded but not read (the boot command takes the image path as its
// argument, and sched.BigStride and mem.PageSize are constants).
type Boot struct {
	Image             string `toml:"image"`               // path to the initial process's ELF-like image
	BigStride         int    `toml:"big_stride"`          // BIG_STRIDE constant for the stride scheduler
	DefaultPriority   int    `toml:"default_priority"`    // priority assigned to newly created threads
	PageSize          int    `toml:"page_size"`           // bytes per virtual page
	DeadlockDetectDefault bool `toml:"deadlock_detect_default"` // initial deadlock_detect flag for new processes
	TimeSliceMs       int    `toml:"time_slice_ms"`       // timer-tick period driving suspend_current
}

// Default returns the tunables spec.md itself assumes: BIG_STRIDE =
// 0x100000, priority floor 2, 4096-byte pages, deadlock detection off by
// default (processes opt in via enable_deadlock_detect).
func Default() Boot {
	return Boot{
		BigStride:             0x100000,
		DefaultPriority:       16,
		PageSize:              4096,
		DeadlockDetectDefault: false,
		TimeSliceMs:           10,
	}
}

// Load decodes path as a Boot config, filling any field the file omits
// with the corresponding Default() value.
func Load(path string) (Boot, error) {
	b := Default()
	if path == "" {
		return b, nil
	}
	if _, err := toml.DecodeFile(path, &b); err != nil {
		return Boot{}, err
	}
	if b.BigStride == 0 {
		b.BigStride = Default().BigStride
	}
	if b.PageSize == 0 {
		b.PageSize = Default().PageSize
	}
	if b.DefaultPriority < 2 {
		b.DefaultPriority = Default().DefaultPriority
	}
	return b, nil
}
