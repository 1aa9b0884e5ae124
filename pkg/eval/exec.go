package eval

import (
	"os"
	"strings"

	"src.vsh.sh/pkg/parse"
)

// Eval runs a parse tree and returns its exit status in 0..255. A nil
// node is a no-op with status 0. $? is updated as every node completes.
func (fm *Frame) Eval(n parse.Node) int {
	return fm.eval(n)
}

func (fm *Frame) eval(n parse.Node) int {
	if n == nil {
		return 0
	}
	if fm.unwinding() {
		return fm.fn.status
	}
	status := fm.evalInner(n)
	fm.ev.LastStatus = status
	return status
}

func (fm *Frame) evalInner(n parse.Node) int {
	switch n := n.(type) {
	case *parse.Command:
		return fm.command(n)
	case *parse.Pipeline:
		return fm.pipeline(n)
	case *parse.And:
		left := fm.eval(n.Left)
		if left != 0 || fm.unwinding() {
			return left
		}
		return fm.eval(n.Right)
	case *parse.Or:
		left := fm.eval(n.Left)
		if left == 0 || fm.unwinding() {
			return left
		}
		return fm.eval(n.Right)
	case *parse.Sequence:
		left := fm.eval(n.Left)
		if fm.unwinding() {
			return left
		}
		return fm.eval(n.Right)
	case *parse.Background:
		cwd, cwdErr := os.Getwd()
		nfm := *fm
		nfm.ev = fm.ev.clone()
		nfm.fn = nil
		nfm.background = true
		nfm.eval(n.Child)
		if cwdErr == nil {
			os.Chdir(cwd)
		}
		return 0
	case *parse.Negate:
		if fm.eval(n.Child) == 0 {
			return 1
		}
		return 0
	case *parse.Subshell:
		return fm.subshell(n)
	case *parse.If:
		if fm.eval(n.Cond) == 0 {
			return fm.eval(n.Then)
		}
		return fm.eval(n.Else)
	case *parse.While:
		status := 0
		for !fm.unwinding() && fm.eval(n.Cond) == 0 {
			if fm.unwinding() {
				break
			}
			status = fm.eval(n.Body)
		}
		return status
	case *parse.For:
		return fm.forLoop(n)
	case *parse.Function:
		fm.ev.DefineFunction(n.Name, n.Body)
		return 0
	case *parse.Block:
		return fm.eval(n.Child)
	}
	return 0
}

// subshell runs the child on a cloned evaler, so variable, function,
// alias, and directory-stack changes stay inside. The working directory
// is process-wide and is restored afterwards.
func (fm *Frame) subshell(n *parse.Subshell) int {
	cwd, cwdErr := os.Getwd()
	nfm := *fm
	nfm.ev = fm.ev.clone()
	nfm.fn = nil
	status := nfm.eval(n.Child)
	if cwdErr == nil {
		os.Chdir(cwd)
	}
	return status
}

func (fm *Frame) forLoop(n *parse.For) int {
	var values []string
	if n.HasIn {
		for _, w := range n.Words {
			fields, err := fm.expandWord(w)
			if err != nil {
				fm.errorf("%v", err)
				return 1
			}
			values = append(values, fields...)
		}
	} else {
		values = fm.ev.Args
	}
	status := 0
	for _, v := range values {
		if fm.unwinding() {
			break
		}
		fm.ev.Env.Set(strings.Clone(n.Var), strings.Clone(v), fm.ev.Env.Exported(n.Var))
		status = fm.eval(n.Body)
	}
	return status
}

// command executes one simple command: expand, then dispatch to
// assignments only, a function, a builtin, or an external program.
func (fm *Frame) command(n *parse.Command) int {
	var argv []string
	for _, w := range n.Argv {
		fields, err := fm.expandWord(w)
		if err != nil {
			fm.errorf("%v", err)
			return 1
		}
		argv = append(argv, fields...)
	}

	if len(argv) == 0 {
		// Bare assignments mutate the shell's own environment. The table
		// outlives the arena-owned line, so the strings are copied off it.
		for _, a := range n.Assigns {
			value, err := fm.expandValue(a.Value, a.Quote)
			if err != nil {
				fm.errorf("%v", err)
				return 1
			}
			fm.ev.Env.Set(strings.Clone(a.Name), strings.Clone(value), fm.ev.Env.Exported(a.Name))
		}
		return 0
	}

	if body, ok := fm.ev.funcs[argv[0]]; ok {
		return fm.callFunction(n, argv[0], body, argv[1:])
	}
	if b, ok := builtins[argv[0]]; ok {
		return fm.runBuiltin(n, b, argv)
	}
	return fm.runExternal(n, argv)
}

// runBuiltin invokes a builtin in-process, with redirections applied to
// the frame's streams and command-local assignments visible only for the
// duration of the call.
func (fm *Frame) runBuiltin(n *parse.Command, b builtin, argv []string) int {
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
	nfm := *fm
	nfm.files = [3]*os.File{files[0], files[1], files[2]}
	return b(&nfm, argv[1:])
}

// applyTempAssigns sets command-local assignments and returns the undo.
func (fm *Frame) applyTempAssigns(assigns []*parse.Assign) (func(), error) {
	var saved []savedVar
	for _, a := range assigns {
		value, err := fm.expandValue(a.Value, a.Quote)
		if err != nil {
			for i := len(saved) - 1; i >= 0; i-- {
				restoreVar(fm.ev, saved[i])
			}
			return nil, err
		}
		old, existed := fm.ev.Env.Get(a.Name)
		saved = append(saved, savedVar{
			name: a.Name, value: old,
			exported: fm.ev.Env.Exported(a.Name), existed: existed,
		})
		fm.ev.Env.Set(a.Name, value, fm.ev.Env.Exported(a.Name))
	}
	return func() {
		for i := len(saved) - 1; i >= 0; i-- {
			restoreVar(fm.ev, saved[i])
		}
	}, nil
}

func restoreVar(ev *Evaler, s savedVar) {
	if s.existed {
		ev.Env.Set(s.name, s.value, s.exported)
	} else {
		ev.Env.Unset(s.name)
	}
}
