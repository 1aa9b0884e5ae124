package eval

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"src.vsh.sh/pkg/jobs"
	"src.vsh.sh/pkg/parse"
)

// builtin is the signature of a builtin command handler. args excludes
// the command name; output goes to the frame's streams.
type builtin func(fm *Frame, args []string) int

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"cd":      cdBuiltin,
		"exit":    exitBuiltin,
		"help":    helpBuiltin,
		"export":  exportBuiltin,
		"unset":   unsetBuiltin,
		"alias":   aliasBuiltin,
		"unalias": unaliasBuiltin,
		"history": historyBuiltin,
		"jobs":    jobsBuiltin,
		"fg":      fgBuiltin,
		"bg":      bgBuiltin,
		"source":  sourceBuiltin,
		".":       sourceBuiltin,
		"pushd":   pushdBuiltin,
		"popd":    popdBuiltin,
		"dirs":    dirsBuiltin,
		"pwd":     pwdBuiltin,
		"echo":    echoBuiltin,
		"type":    typeBuiltin,
		"return":  returnBuiltin,
		"local":   localBuiltin,
		"true":    func(*Frame, []string) int { return 0 },
		"false":   func(*Frame, []string) int { return 1 },
		"colors":  colorsBuiltin,
	}
}

// IsBuiltin reports whether name is a builtin command.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// BuiltinNames returns the names of all builtin commands, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// chdir changes the working directory and maintains PWD and OLDPWD.
func (fm *Frame) chdir(dir string) int {
	old, err := os.Getwd()
	if err != nil {
		old = fm.ev.Env.GetDefault("PWD")
	}
	if err := os.Chdir(dir); err != nil {
		fm.errorf("cd: %s: %v", dir, pathError(err))
		return 1
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = dir
	}
	fm.ev.Env.Set("OLDPWD", old, true)
	fm.ev.Env.Set("PWD", cwd, true)
	return 0
}

// pathError strips the wrapping so diagnostics read like "cd: x: no such
// file or directory" instead of repeating the operation and path.
func pathError(err error) error {
	if pe, ok := err.(*os.PathError); ok {
		return pe.Err
	}
	return err
}

func cdBuiltin(fm *Frame, args []string) int {
	switch {
	case len(args) == 0:
		home := fm.ev.Env.GetDefault("HOME")
		if home == "" {
			fm.errorf("cd: HOME not set")
			return 1
		}
		return fm.chdir(home)
	case args[0] == "-":
		old := fm.ev.Env.GetDefault("OLDPWD")
		if old == "" {
			fm.errorf("cd: OLDPWD not set")
			return 1
		}
		if status := fm.chdir(old); status != 0 {
			return status
		}
		fmt.Fprintln(fm.files[1], fm.ev.Env.GetDefault("PWD"))
		return 0
	default:
		return fm.chdir(args[0])
	}
}

func exitBuiltin(fm *Frame, args []string) int {
	status := fm.ev.LastStatus
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fm.errorf("exit: %s: numeric argument required", args[0])
			n = 2
		}
		status = n & 0xff
	}
	fm.ev.Running = false
	fm.ev.ExitStatus = status
	return status
}

func helpBuiltin(fm *Frame, args []string) int {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(fm.files[1], "builtin commands:")
	for _, name := range names {
		fmt.Fprintf(fm.files[1], "  %s\n", name)
	}
	return 0
}

func exportBuiltin(fm *Frame, args []string) int {
	if len(args) == 0 {
		for _, name := range fm.ev.Env.Names() {
			if fm.ev.Env.Exported(name) {
				value, _ := fm.ev.Env.Get(name)
				fmt.Fprintf(fm.files[1], "export %s=%s\n", name, value)
			}
		}
		return 0
	}
	status := 0
	for _, arg := range args {
		if name, value, ok := splitNameValue(arg); ok {
			if !validName(name) {
				fm.errorf("export: %s: not a valid identifier", name)
				status = 1
				continue
			}
			fm.ev.Env.Set(strings.Clone(name), strings.Clone(value), true)
			continue
		}
		if !validName(arg) {
			fm.errorf("export: %s: not a valid identifier", arg)
			status = 1
			continue
		}
		fm.ev.Env.Export(strings.Clone(arg))
	}
	return status
}

func splitNameValue(s string) (name, value string, ok bool) {
	i := strings.IndexByte(s, '=')
	if i <= 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

func unsetBuiltin(fm *Frame, args []string) int {
	for _, name := range args {
		fm.ev.Env.Unset(name)
	}
	return 0
}

func aliasBuiltin(fm *Frame, args []string) int {
	if len(args) == 0 {
		names := make([]string, 0, len(fm.ev.aliases))
		for name := range fm.ev.aliases {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(fm.files[1], "alias %s='%s'\n", name, fm.ev.aliases[name])
		}
		return 0
	}
	status := 0
	for _, arg := range args {
		if name, value, ok := splitNameValue(arg); ok {
			// The table outlives the arena-owned argument.
			fm.ev.aliases[strings.Clone(name)] = strings.Clone(value)
			continue
		}
		value, ok := fm.ev.aliases[arg]
		if !ok {
			fm.errorf("alias: %s: not found", arg)
			status = 1
			continue
		}
		fmt.Fprintf(fm.files[1], "alias %s='%s'\n", arg, value)
	}
	return status
}

func unaliasBuiltin(fm *Frame, args []string) int {
	if len(args) == 1 && args[0] == "-a" {
		fm.ev.aliases = make(map[string]string)
		return 0
	}
	status := 0
	for _, name := range args {
		if _, ok := fm.ev.aliases[name]; !ok {
			fm.errorf("unalias: %s: not found", name)
			status = 1
			continue
		}
		delete(fm.ev.aliases, name)
	}
	return status
}

func historyBuiltin(fm *Frame, args []string) int {
	if fm.ev.History == nil {
		fm.errorf("history: no history store")
		return 1
	}
	if len(args) > 0 && args[0] == "-d" {
		if len(args) != 2 {
			fm.errorf("history: -d needs an entry number")
			return 2
		}
		seq, err := strconv.Atoi(args[1])
		if err != nil {
			fm.errorf("history: bad entry number %q", args[1])
			return 2
		}
		if err := fm.ev.History.DelCmd(seq); err != nil {
			fm.errorf("history: %v", err)
			return 1
		}
		return 0
	}
	withTime := len(args) > 0 && args[0] == "-t"
	cmds, err := fm.ev.History.AllCmds()
	if err != nil {
		fm.errorf("history: %v", err)
		return 1
	}
	for _, cmd := range cmds {
		if withTime {
			fmt.Fprintf(fm.files[1], "%5d  %s  %s\n",
				cmd.Seq, cmd.When.Format("2006-01-02 15:04"), cmd.Text)
		} else {
			fmt.Fprintf(fm.files[1], "%5d  %s\n", cmd.Seq, cmd.Text)
		}
	}
	return 0
}

func jobsBuiltin(fm *Frame, args []string) int {
	fm.ev.Jobs.List(fm.files[1])
	return 0
}

// jobArg resolves a %N argument, defaulting to the most recent job.
func (fm *Frame) jobArg(name string, args []string) (*jobs.Job, bool) {
	if len(args) == 0 {
		j := fm.ev.Jobs.MostRecent()
		if j == nil {
			fm.errorf("%s: no current job", name)
			return nil, false
		}
		return j, true
	}
	id, err := strconv.Atoi(strings.TrimPrefix(args[0], "%"))
	if err != nil {
		fm.errorf("%s: %s: no such job", name, args[0])
		return nil, false
	}
	j := fm.ev.Jobs.Find(id)
	if j == nil {
		fm.errorf("%s: %s: no such job", name, args[0])
		return nil, false
	}
	return j, true
}

func fgBuiltin(fm *Frame, args []string) int {
	job, ok := fm.jobArg("fg", args)
	if !ok {
		return 1
	}
	fmt.Fprintln(fm.files[1], job.Cmd)
	return fm.ev.Jobs.ContinueForeground(job)
}

func bgBuiltin(fm *Frame, args []string) int {
	job, ok := fm.jobArg("bg", args)
	if !ok {
		return 1
	}
	if job.State != jobs.Stopped {
		fm.errorf("bg: job %d already in background", job.ID)
		return 1
	}
	fm.ev.Jobs.ContinueBackground(job)
	fmt.Fprintf(fm.files[1], "[%d] %s &\n", job.ID, job.Cmd)
	return 0
}

const maxSourceDepth = 32

func sourceBuiltin(fm *Frame, args []string) int {
	if len(args) == 0 {
		fm.errorf("source: filename argument required")
		return 2
	}
	if fm.ev.sourceDepth >= maxSourceDepth {
		fm.errorf("source: %s: nesting too deep", args[0])
		return 1
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fm.errorf("source: %s: %v", args[0], pathError(err))
		return 1
	}
	node, err := parse.Parse(args[0], string(data), fm.ev.Arena)
	if err != nil {
		fm.errorf("%v", err)
		return 2
	}

	savedArgs := fm.ev.Args
	if len(args) > 1 {
		fm.ev.Args = args[1:]
	}
	fm.ev.sourceDepth++
	status := fm.eval(node)
	fm.ev.sourceDepth--
	fm.ev.Args = savedArgs
	return status
}

func pushdBuiltin(fm *Frame, args []string) int {
	cwd, err := os.Getwd()
	if err != nil {
		fm.errorf("pushd: %v", err)
		return 1
	}
	if len(args) == 0 {
		if len(fm.ev.dirs) == 0 {
			fm.errorf("pushd: no other directory")
			return 1
		}
		top := fm.ev.dirs[0]
		if status := fm.chdir(top); status != 0 {
			return status
		}
		fm.ev.dirs[0] = cwd
		return dirsBuiltin(fm, nil)
	}
	if status := fm.chdir(args[0]); status != 0 {
		return status
	}
	fm.ev.dirs = append([]string{cwd}, fm.ev.dirs...)
	return dirsBuiltin(fm, nil)
}

func popdBuiltin(fm *Frame, args []string) int {
	if len(fm.ev.dirs) == 0 {
		fm.errorf("popd: directory stack empty")
		return 1
	}
	top := fm.ev.dirs[0]
	if status := fm.chdir(top); status != 0 {
		return status
	}
	fm.ev.dirs = fm.ev.dirs[1:]
	return dirsBuiltin(fm, nil)
}

func dirsBuiltin(fm *Frame, args []string) int {
	cwd, err := os.Getwd()
	if err != nil {
		fm.errorf("dirs: %v", err)
		return 1
	}
	fmt.Fprint(fm.files[1], cwd)
	for _, dir := range fm.ev.dirs {
		fmt.Fprint(fm.files[1], " ", dir)
	}
	fmt.Fprintln(fm.files[1])
	return 0
}

func pwdBuiltin(fm *Frame, args []string) int {
	cwd, err := os.Getwd()
	if err != nil {
		fm.errorf("pwd: %v", err)
		return 1
	}
	fmt.Fprintln(fm.files[1], cwd)
	return 0
}

func echoBuiltin(fm *Frame, args []string) int {
	newline := true
	if len(args) > 0 && args[0] == "-n" {
		newline = false
		args = args[1:]
	}
	fmt.Fprint(fm.files[1], strings.Join(args, " "))
	if newline {
		fmt.Fprintln(fm.files[1])
	}
	return 0
}

func typeBuiltin(fm *Frame, args []string) int {
	status := 0
	for _, name := range args {
		switch {
		case fm.ev.aliases[name] != "":
			fmt.Fprintf(fm.files[1], "%s is aliased to '%s'\n", name, fm.ev.aliases[name])
		case fm.ev.funcs[name] != "":
			fmt.Fprintf(fm.files[1], "%s is a function\n", name)
		case IsBuiltin(name):
			fmt.Fprintf(fm.files[1], "%s is a shell builtin\n", name)
		default:
			if path, ok := fm.lookPath(name); ok {
				fmt.Fprintf(fm.files[1], "%s is %s\n", name, path)
			} else {
				fm.errorf("type: %s: not found", name)
				status = 1
			}
		}
	}
	return status
}

func returnBuiltin(fm *Frame, args []string) int {
	if fm.fn == nil {
		fm.errorf("return: can only be used in a function")
		return 1
	}
	status := fm.ev.LastStatus
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fm.errorf("return: %s: numeric argument required", args[0])
			n = 2
		}
		status = n & 0xff
	}
	fm.fn.returning = true
	fm.fn.status = status
	return status
}

func localBuiltin(fm *Frame, args []string) int {
	if fm.fn == nil {
		fm.errorf("local: can only be used in a function")
		return 1
	}
	status := 0
	for _, arg := range args {
		name, value, ok := splitNameValue(arg)
		if !ok {
			name, value = arg, ""
		}
		if !validName(name) {
			fm.errorf("local: %s: not a valid identifier", name)
			status = 1
			continue
		}
		old, existed := fm.ev.Env.Get(name)
		fm.fn.saved = append(fm.fn.saved, savedVar{
			name: name, value: old,
			exported: fm.ev.Env.Exported(name), existed: existed,
		})
		fm.ev.Env.Set(name, value, false)
	}
	return status
}

func colorsBuiltin(fm *Frame, args []string) int {
	chart := []struct {
		name string
		attr color.Attribute
	}{
		{"black", color.FgBlack}, {"red", color.FgRed},
		{"green", color.FgGreen}, {"yellow", color.FgYellow},
		{"blue", color.FgBlue}, {"magenta", color.FgMagenta},
		{"cyan", color.FgCyan}, {"white", color.FgWhite},
		{"hi-black", color.FgHiBlack}, {"hi-red", color.FgHiRed},
		{"hi-green", color.FgHiGreen}, {"hi-yellow", color.FgHiYellow},
		{"hi-blue", color.FgHiBlue}, {"hi-magenta", color.FgHiMagenta},
		{"hi-cyan", color.FgHiCyan}, {"hi-white", color.FgHiWhite},
		{"bold", color.Bold}, {"faint", color.Faint},
		{"italic", color.Italic}, {"underline", color.Underline},
	}
	for i, c := range chart {
		fmt.Fprintf(fm.files[1], "%-14s", color.New(c.attr).Sprint(c.name))
		if i%4 == 3 {
			fmt.Fprintln(fm.files[1])
		}
	}
	return 0
}
