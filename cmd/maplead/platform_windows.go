//go:build windows

package main

import (
	"os"
	"os/signal"
	"syscall"
	"unsafe"
)

var (
	kernel32           = syscall.NewLazyDLL("kernel32.dll")
	procGetConsoleMode = kernel32.NewProc("GetConsoleMode")
	procSetConsoleMode = kernel32.NewProc("SetConsoleMode")
	procGetStdHandle   = kernel32.NewProc("GetStdHandle")
)

const (
	stdOutputHandle                 = ^uintptr(0) - 10 + 1 // STD_OUTPUT_HANDLE = -11
	enableVirtualTerminalProcessing = 0x0004
)

// enableANSI turns on escape code processing for the console and reports
// whether it succeeded. Redirected output has no console mode.
func enableANSI() bool {
	handle, _, _ := procGetStdHandle.Call(stdOutputHandle)
	if handle == 0 {
		return false
	}
	var mode uint32
	if r, _, _ := procGetConsoleMode.Call(handle, uintptr(unsafe.Pointer(&mode))); r == 0 {
		return false
	}
	r, _, _ := procSetConsoleMode.Call(handle, uintptr(mode|enableVirtualTerminalProcessing))
	return r != 0
}

// registerSignals routes Ctrl+C to ch. SIGTERM is not delivered on Windows.
func registerSignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
