package eval

import (
	"os"
	"sort"
	"strings"

	"src.vsh.sh/pkg/parse"
)

// DefineFunction records a function under name. The body is stored in its
// canonically printed form, a long-lived string independent of the parse
// arena, and reparsed on every call.
func (ev *Evaler) DefineFunction(name string, body parse.Node) {
	ev.funcs[strings.Clone(name)] = parse.Print(body)
}

// Functions returns the defined function names, sorted.
func (ev *Evaler) Functions() []string {
	names := make([]string, 0, len(ev.funcs))
	for name := range ev.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// callFunction invokes a defined function: positional parameters are
// swapped for the arguments, locals declared inside are restored on exit,
// and a return builtin unwinds to here.
func (fm *Frame) callFunction(n *parse.Command, name, body string, args []string) int {
	node, err := parse.Parse(name, body, fm.ev.Arena)
	if err != nil {
		fm.errorf("%s: %v", name, err)
		return 1
	}
	files, cleanup, err := fm.applyRedirs(n.Redirs)
	if err != nil {
		fm.errorf("%v", err)
		return 1
	}
	defer cleanup()
	restore, err := fm.applyTempAssigns(n.Assigns)
	if err != nil {
		fm.errorf("%v", err)
		return 1
	}
	defer restore()

	savedArgs := fm.ev.Args
	fm.ev.Args = args
	call := &callFrame{}
	nfm := *fm
	nfm.files = [3]*os.File{files[0], files[1], files[2]}
	nfm.fn = call
	status := nfm.eval(node)
	for i := len(call.saved) - 1; i >= 0; i-- {
		restoreVar(fm.ev, call.saved[i])
	}
	fm.ev.Args = savedArgs
	if call.returning {
		status = call.status
	}
	return status
}
