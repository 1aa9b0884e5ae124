// Package shell is the terminal interface of vsh: interactive sessions,
// script and -c execution, and the prompt.
package shell

import (
	"fmt"
	"os"
	"path/filepath"

	"src.vsh.sh/pkg/arena"
	"src.vsh.sh/pkg/env"
	"src.vsh.sh/pkg/eval"
	"src.vsh.sh/pkg/jobs"
	"src.vsh.sh/pkg/logutil"
	"src.vsh.sh/pkg/prog"
	"src.vsh.sh/pkg/store"
	"src.vsh.sh/pkg/sys"
)

var logger = logutil.GetLogger("[shell] ")

// Program is the shell subprogram. It always runs, so it belongs at the
// end of a Composite.
type Program struct{}

func (p Program) Run(fds [3]*os.File, f *prog.Flags, args []string) error {
	if f.CodeInArg && len(args) == 0 {
		return prog.BadUsage("argument required to -c")
	}

	interactive := len(args) == 0 && !f.CodeInArg && sys.IsATTY(fds[0].Fd())
	ttyFd := -1
	if interactive {
		ttyFd = int(fds[0].Fd())
	}
	jobTable := jobs.NewTable(ttyFd, sys.Getpgrp())
	defer jobTable.StartReaper()()
	defer jobTable.Shutdown()

	ev := eval.New(env.FromEnviron(os.Environ()), jobTable, arena.New())
	ev.Interactive = interactive
	ev.TTYFd = ttyFd

	if len(args) > 0 || f.CodeInArg {
		return prog.Exit(script(ev, fds, args, f.CodeInArg))
	}

	defer handleSignals(fds[2])()

	var st store.DBStore
	if interactive {
		if path, err := dbPath(f); err != nil {
			fmt.Fprintln(fds[2], "warning: history disabled:", err)
		} else if st, err = openDB(path); err != nil {
			fmt.Fprintln(fds[2], "warning: history disabled:", err)
			st = nil
		}
	}
	if st != nil {
		defer st.Close()
		ev.History = st
	}

	rc := ""
	if interactive && !f.NoRc {
		rc = rcPath(f)
	}
	Interact(fds, &InteractConfig{Evaler: ev, Store: st, RC: rc})
	return prog.Exit(ev.ExitStatus)
}

func dbPath(f *prog.Flags) (string, error) {
	if f.DB != "" {
		return f.DB, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".vsh", "db"), nil
}

func openDB(path string) (store.DBStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return store.NewStore(path)
}

func rcPath(f *prog.Flags) string {
	if f.RC != "" {
		return f.RC
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".vshrc")
}
