//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// enableANSI reports whether stdout is a terminal. Piped output gets no
// color codes.
func enableANSI() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// registerSignals routes Ctrl+C and termination requests to ch.
func registerSignals(ch chan<- os.Signal) {
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
}
