//go:build !unix

package process

import "syscall"

func signalName(sig syscall.Signal) string {
	return sig.String()
}

func isExecFormatError(error) bool {
	return false
}
