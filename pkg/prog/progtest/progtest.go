// Package progtest provides utilities for testing subprograms.
package progtest

import (
	"io"
	"os"

	"github.com/creack/pty"

	"src.vsh.sh/pkg/prog"
	"src.vsh.sh/pkg/testutil"
)

// Run runs a Program with the given arguments and stdin, and captures
// its stdout and stderr.
func Run(p prog.Program, stdin *os.File, args ...string) (exit int, stdout, stderr string) {
	outR, outW := testutil.MustPipe()
	errR, errW := testutil.MustPipe()
	outCh := drain(outR)
	errCh := drain(errR)
	exit = prog.Run([3]*os.File{stdin, outW, errW},
		append([]string{"vsh"}, args...), p)
	outW.Close()
	errW.Close()
	return exit, <-outCh, <-errCh
}

// SetupTTY opens a pty pair. The slave end is suitable as the stdin of
// an interactive session; input fed to the master end arrives as if
// typed on a terminal.
func SetupTTY(c testutil.Cleanuper) (tty, ptmx *os.File) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		panic(err)
	}
	c.Cleanup(func() {
		ptmx.Close()
		tty.Close()
	})
	return tty, ptmx
}

// drain reads r to EOF in the background, so that the program under
// test never blocks on a full pipe.
func drain(r *os.File) <-chan string {
	ch := make(chan string, 1)
	go func() {
		data, _ := io.ReadAll(r)
		r.Close()
		ch <- string(data)
	}()
	return ch
}
