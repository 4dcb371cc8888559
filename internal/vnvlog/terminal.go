//go:build !windows && !linux

package vnvlog

import (
	"syscall"
	"unsafe"
)

// isTerminal reports whether fd is a terminal on BSD-family Unix systems
// (including macOS), which use TIOCGETA rather than Linux's TCGETS.
func isTerminal(fd uintptr) bool {
	var termios syscall.Termios
	_, _, err := syscall.Syscall6(
		syscall.SYS_IOCTL,
		fd,
		syscall.TIOCGETA,
		uintptr(unsafe.Pointer(&termios)),
		0, 0, 0,
	)
	return err == 0
}
