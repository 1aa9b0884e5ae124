// Package sys provides the thin syscall layer the shell core needs:
// terminal detection and ownership, process group queries, and signal
// plumbing.
package sys

import (
	"github.com/mattn/go-isatty"
)

// IsATTY determines whether the given file descriptor refers to a
// terminal.
func IsATTY(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
