package shell

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"src.vsh.sh/pkg/diag"
	"src.vsh.sh/pkg/eval"
	"src.vsh.sh/pkg/parse"
)

// script executes a script file, or the code given to -c. Arguments after
// the first become the positional parameters.
func script(ev *eval.Evaler, fds [3]*os.File, args []string, cmd bool) int {
	arg0 := args[0]
	ev.Args = args[1:]

	var name, code string
	if cmd {
		name = "code from -c"
		code = arg0
	} else {
		var err error
		name, err = filepath.Abs(arg0)
		if err != nil {
			fmt.Fprintf(fds[2],
				"cannot get full path of script %q: %v\n", arg0, err)
			return 2
		}
		code, err = readFileUTF8(name)
		if err != nil {
			fmt.Fprintf(fds[2], "cannot read script %q: %v\n", name, err)
			return 2
		}
		ev.ShellName = arg0
	}

	n, err := parse.Parse(name, code, ev.Arena)
	if err != nil {
		diag.ShowError(fds[2], err)
		return 2
	}
	status := ev.NewFrame(fds).Eval(n)
	if !ev.Running {
		return ev.ExitStatus
	}
	return status
}

var errSourceNotUTF8 = errors.New("source is not UTF-8")

func readFileUTF8(fname string) (string, error) {
	bytes, err := os.ReadFile(fname)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(bytes) {
		return "", errSourceNotUTF8
	}
	return string(bytes), nil
}
