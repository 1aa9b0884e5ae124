//go:build unix

package shell

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"src.vsh.sh/pkg/sys"
)

// handleSignals installs the interactive signal discipline and returns a
// stop function. Keyboard and terminal signals are trapped rather than
// ignored, so children start with the default disposition after exec.
// SIGHUP is forwarded to the process group before exiting.
func handleSignals(stderr *os.File) func() {
	sigCh := sys.NotifySignals(
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT,
		syscall.SIGTSTP, syscall.SIGTTIN, syscall.SIGTTOU)
	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				syscall.Kill(0, syscall.SIGHUP)
				os.Exit(0)
			case syscall.SIGINT:
				fmt.Fprintln(stderr)
			}
		}
	}()
	return func() {
		signal.Stop(sigCh)
		close(sigCh)
	}
}
