package eval

import (
	"fmt"
	"os"
	"sync"

	"src.vsh.sh/pkg/parse"
)

// pipeline connects the stages stdout-to-stdin. Stages that resolve to
// external programs run in one shared process group; builtins, functions,
// and compound stages run in-process on cloned evalers, so their variable
// mutations stay inside the stage. The pipeline's status is the status of
// the last stage, inverted under '!'.
func (fm *Frame) pipeline(n *parse.Pipeline) int {
	nstages := len(n.Commands)
	pipes := make([][2]*os.File, nstages-1)
	for i := range pipes {
		r, w, err := os.Pipe()
		if err != nil {
			for j := 0; j < i; j++ {
				pipes[j][0].Close()
				pipes[j][1].Close()
			}
			fm.errorf("pipe: %v", err)
			return 1
		}
		pipes[i] = [2]*os.File{r, w}
	}

	var (
		wg       sync.WaitGroup
		pids     []int
		pgid     int
		statuses = make([]int, nstages)
		lastExt  bool
	)
	foreground := !fm.background
	for i, stage := range n.Commands {
		stdin, stdout := fm.files[0], fm.files[1]
		if i > 0 {
			stdin = pipes[i-1][0]
		}
		if i < nstages-1 {
			stdout = pipes[i][1]
		}
		closeEnds := func() {
			if i > 0 {
				pipes[i-1][0].Close()
			}
			if i < nstages-1 {
				pipes[i][1].Close()
			}
		}

		if cmd, argv, path, ok := fm.externalStage(stage); ok {
			nfm := *fm
			nfm.files = [3]*os.File{stdin, stdout, fm.files[2]}
			pid, err := nfm.startExternalStage(cmd, argv, path, pgid, foreground)
			if err != nil {
				fm.errorf("%s: %v", argv[0], err)
				statuses[i] = 126
			} else {
				if pgid == 0 {
					pgid = pid
				}
				pids = append(pids, pid)
				lastExt = i == nstages-1
			}
			// The child holds its own copies of the pipe ends.
			closeEnds()
			continue
		}

		nfm := &Frame{
			ev:    fm.ev.clone(),
			files: [3]*os.File{stdin, stdout, fm.files[2]},
		}
		wg.Add(1)
		go func(i int, nfm *Frame, stage parse.Node, closeEnds func()) {
			defer wg.Done()
			statuses[i] = nfm.eval(stage)
			closeEnds()
		}(i, nfm, stage, closeEnds)
	}

	cmdStr := parse.Print(n)
	if !foreground {
		if len(pids) > 0 {
			job := fm.ev.Jobs.Add(pgid, pids, cmdStr, false)
			fmt.Fprintf(fm.files[2], "[%d] %d\n", job.ID, pgid)
		}
		return 0
	}

	status := 0
	if len(pids) > 0 {
		job := fm.ev.Jobs.Add(pgid, pids, cmdStr, true)
		status = fm.ev.Jobs.WaitForeground(job)
	}
	wg.Wait()
	if !lastExt {
		status = statuses[nstages-1]
	}
	if n.Negated {
		if status == 0 {
			return 1
		}
		return 0
	}
	return status
}

// externalStage reports whether the stage is a simple command that will
// run an external program, returning its expanded argv and resolved path.
// Anything else, including commands whose expansion fails, runs in-process
// where the usual dispatch reports the error.
func (fm *Frame) externalStage(stage parse.Node) (*parse.Command, []string, string, bool) {
	cmd, ok := stage.(*parse.Command)
	if !ok {
		return nil, nil, "", false
	}
	var argv []string
	for _, w := range cmd.Argv {
		fields, err := fm.expandWord(w)
		if err != nil {
			return nil, nil, "", false
		}
		argv = append(argv, fields...)
	}
	if len(argv) == 0 {
		return nil, nil, "", false
	}
	if _, ok := fm.ev.funcs[argv[0]]; ok {
		return nil, nil, "", false
	}
	if _, ok := builtins[argv[0]]; ok {
		return nil, nil, "", false
	}
	path, ok := fm.lookPath(argv[0])
	if !ok {
		return nil, nil, "", false
	}
	return cmd, argv, path, true
}

// startExternalStage launches one pipeline stage. The frame's files are
// already the stage's pipe-wired streams; redirections apply on top.
func (fm *Frame) startExternalStage(cmd *parse.Command, argv []string, path string, pgid int, foreground bool) (int, error) {
	files, cleanup, err := fm.applyRedirs(cmd.Redirs)
	if err != nil {
		return 0, err
	}
	defer cleanup()
	envp, err := fm.commandEnv(cmd.Assigns)
	if err != nil {
		return 0, err
	}
	return fm.startProcess(path, argv, files, envp, pgid, foreground)
}
