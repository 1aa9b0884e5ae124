package eval

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"src.vsh.sh/pkg/parse"
)

// runExternal launches argv as an external program in its own process
// group, registers the job, and waits unless the frame runs under '&'.
func (fm *Frame) runExternal(n *parse.Command, argv []string) int {
	path, ok := fm.lookPath(argv[0])
	if !ok {
		fm.errorf("%s: command not found", argv[0])
		return 127
	}
	files, cleanup, err := fm.applyRedirs(n.Redirs)
	if err != nil {
		fm.errorf("%v", err)
		return 1
	}
	defer cleanup()
	envp, err := fm.commandEnv(n.Assigns)
	if err != nil {
		fm.errorf("%v", err)
		return 1
	}

	foreground := !fm.background
	pid, err := fm.startProcess(path, argv, files, envp, 0, foreground)
	if err != nil {
		fm.errorf("%s: %v", argv[0], err)
		return 126
	}

	cmdStr := parse.Print(n)
	if !foreground {
		job := fm.ev.Jobs.Add(0, []int{pid}, cmdStr, false)
		fmt.Fprintf(fm.files[2], "[%d] %d\n", job.ID, pid)
		return 0
	}
	job := fm.ev.Jobs.Add(0, []int{pid}, cmdStr, true)
	return fm.ev.Jobs.WaitForeground(job)
}

// startProcess wraps os.StartProcess with the process-group discipline:
// the child enters pgid (a fresh group when zero), and a foreground child
// of an interactive shell is handed the terminal before exec.
func (fm *Frame) startProcess(path string, argv []string, files []*os.File, envp []string, pgid int, foreground bool) (int, error) {
	sys := &syscall.SysProcAttr{Setpgid: true, Pgid: pgid}
	if foreground && fm.ev.Interactive && fm.ev.TTYFd >= 0 {
		sys.Foreground = true
		sys.Ctty = fm.ev.TTYFd
	}
	proc, err := os.StartProcess(path, argv, &os.ProcAttr{
		Files: files, Env: envp, Sys: sys,
	})
	if err != nil {
		return 0, err
	}
	pid := proc.Pid
	proc.Release()
	logger.Printf("started %s, pid %d", path, pid)
	return pid, nil
}

// commandEnv builds the child environment: the exported variables plus
// the command's prefixed assignments.
func (fm *Frame) commandEnv(assigns []*parse.Assign) ([]string, error) {
	envp := fm.ev.Env.BuildEnvp()
	for _, a := range assigns {
		value, err := fm.expandValue(a.Value, a.Quote)
		if err != nil {
			return nil, err
		}
		envp = append(envp, a.Name+"="+value)
	}
	return envp, nil
}

// lookPath resolves a command name to an executable path: a name with a
// slash is used as is, a bare name is tried in the working directory and
// then along $PATH.
func (fm *Frame) lookPath(name string) (string, bool) {
	if strings.ContainsRune(name, '/') {
		return name, true
	}
	if isExecutable(name) {
		return name, true
	}
	path := fm.ev.Env.GetDefault("PATH")
	for _, dir := range strings.Split(path, ":") {
		if dir == "" {
			dir = "."
		}
		full := dir + "/" + name
		if isExecutable(full) {
			return full, true
		}
	}
	return "", false
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode()&0o111 != 0
}
