//go:build unix

package sys

import (
	"golang.org/x/sys/unix"
)

// Tcsetpgrp makes pgid the foreground process group of the terminal
// referred to by fd.
func Tcsetpgrp(fd int, pgid int) error {
	return unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, pgid)
}

// Tcgetpgrp returns the foreground process group of the terminal referred
// to by fd.
func Tcgetpgrp(fd int) (int, error) {
	return unix.IoctlGetInt(fd, unix.TIOCGPGRP)
}

// Getpgrp returns the process group of the calling process.
func Getpgrp() int {
	return unix.Getpgrp()
}
