// Package klog wraps logrus with the field conventions the kernel core
// uses everywhere: pid/tid/syscall context attached at the call site
// rather than baked into formatted strings. Sourced from the logging
// stack vendored by the gvisor-family repos in the retrieval pack
// (wilinz-gvisor, Talismancer-gvisor-ligolo both require
// github.com/sirupsen/logrus).
package klog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger configured for kernel-core use: text formatting,
// full timestamps, and a level controlled by the KERNEL_LOG_LEVEL
// environment variable (defaults to "info").
func New() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(os.Getenv("KERNEL_LOG_LEVEL"))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// Proc returns a logger entry scoped to a process.
func Proc(l *logrus.Logger, pid int) *logrus.Entry {
	return l.WithField("pid", pid)
}

// Thread returns a logger entry scoped to a process/thread pair.
func Thread(l *logrus.Logger, pid, tid int) *logrus.Entry {
	return l.WithFields(logrus.Fields{"pid": pid, "tid": tid})
}
