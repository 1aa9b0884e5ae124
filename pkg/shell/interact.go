package shell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"src.vsh.sh/pkg/diag"
	"src.vsh.sh/pkg/eval"
	"src.vsh.sh/pkg/parse"
	"src.vsh.sh/pkg/store/storedefs"
	"src.vsh.sh/pkg/sys"
)

// InteractConfig keeps configuration for the interactive mode.
type InteractConfig struct {
	Evaler *eval.Evaler
	Store  storedefs.Store // nil disables history
	RC     string          // rc file to source first, "" to skip
}

// Interact runs the read-eval loop: source the rc file, then read,
// expand and evaluate lines until EOF or the exit builtin. When the
// evaler is not interactive the loop reads lines without prompting and
// writes nothing to stderr besides diagnostics.
func Interact(fds [3]*os.File, cfg *InteractConfig) {
	ev := cfg.Evaler
	color.NoColor = !sys.IsATTY(fds[2].Fd())

	var ed editor = newMinEditor(fds[0], fds[2])

	if cfg.RC != "" {
		if err := sourceRC(fds, ev, cfg.RC); err != nil {
			diag.ShowError(fds[2], err)
		}
	}

	cmdNum := 0
	for ev.Running {
		cmdNum++
		ev.Jobs.CheckBackground(fds[2])

		line, err := ed.ReadLine(prompt(ev))
		if err == io.EOF {
			if ev.Interactive {
				fmt.Fprintln(fds[2])
			}
			break
		} else if err != nil {
			fmt.Fprintln(fds[2], "error reading input:", err)
			break
		}

		if cfg.Store != nil {
			expanded, hchanged, err := expandHistory(cfg.Store, line)
			if err != nil {
				diag.Complain(fds[2], "vsh: "+err.Error())
				ev.LastStatus = 1
				continue
			}
			if hchanged {
				// Echo the expanded line the way interactive shells do, so
				// the user sees what actually runs.
				fmt.Fprintln(fds[2], expanded)
				line = expanded
			}
			if strings.TrimSpace(line) != "" {
				if _, err := cfg.Store.AddCmd(line); err != nil {
					logger.Println("add command to history:", err)
				}
			}
		}

		evalLine(ev, fds, fmt.Sprintf("[tty %d]", cmdNum), line)
	}
}

// evalLine runs one line of input. Aliases expand textually before
// parsing; the arena is reset first, so nothing from previous lines may
// still point into it.
func evalLine(ev *eval.Evaler, fds [3]*os.File, name, line string) {
	line = ev.ExpandAliases(line)
	ev.Arena.Reset()
	n, err := parse.Parse(name, line, ev.Arena)
	if err != nil {
		diag.ShowError(fds[2], err)
		ev.LastStatus = 2
		return
	}
	ev.NewFrame(fds).Eval(n)
}

func sourceRC(fds [3]*os.File, ev *eval.Evaler, rcPath string) error {
	path, err := filepath.Abs(rcPath)
	if err != nil {
		return fmt.Errorf("cannot get full path of rc file: %v", err)
	}
	code, err := readFileUTF8(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	ev.Arena.Reset()
	n, err := parse.Parse(path, code, ev.Arena)
	if err != nil {
		ev.LastStatus = 2
		return err
	}
	ev.NewFrame(fds).Eval(n)
	return nil
}
