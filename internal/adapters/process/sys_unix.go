//go:build unix

package process

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

// signalName returns the conventional name of sig, such as SIGTERM.
func signalName(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return sig.String()
}

// isExecFormatError reports whether the kernel refused to load the program image.
func isExecFormatError(err error) bool {
	return errors.Is(err, unix.ENOEXEC)
}
