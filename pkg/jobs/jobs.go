// Package jobs implements the job table and the SIGCHLD-driven job state
// machine. Child status transitions arrive on a reaper goroutine, which
// makes the wait4 calls while the shell runs (Shutdown waits for the jobs
// it kills itself); everything else blocks on a condition variable until
// the state it cares about is reached.
package jobs

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/sys/unix"

	"src.vsh.sh/pkg/logutil"
	"src.vsh.sh/pkg/sys"
)

var logger = logutil.GetLogger("[jobs] ")

// State is the lifecycle state of a job.
type State int

// Job states.
const (
	Running State = iota
	Stopped
	Done
	Killed
)

var stateNames = []string{"Running", "Stopped", "Done", "Killed"}

func (s State) String() string { return stateNames[s] }

// Job is a set of processes in one process group managed as a unit. All
// fields are guarded by the owning table's lock.
type Job struct {
	ID         int
	Pgid       int
	Pids       []int // zeroed as each process completes
	State      State
	Cmd        string
	Notified   bool
	Foreground bool

	// Exit status of the last process in Pids, which determines the
	// job's status. 128+signal for signal death.
	exitStatus int
	lastPid    int
	remaining  int
}

// Status returns the job's exit status once it is Done or Killed.
func (j *Job) Status() int { return j.exitStatus }

// Table tracks all jobs of the shell. Structural changes (Add, Remove)
// happen only on the main flow; the reaper goroutine only flips state
// fields and zeroes pid slots.
type Table struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []*Job
	nextID int

	ttyFd     int // fd of the controlling terminal, -1 when not interactive
	shellPgid int
}

// NewTable returns an empty job table. ttyFd is the fd of the controlling
// terminal (or -1 for non-interactive shells) and shellPgid the shell's
// own process group, which reclaims the terminal between foreground jobs.
func NewTable(ttyFd, shellPgid int) *Table {
	t := &Table{nextID: 1, ttyFd: ttyFd, shellPgid: shellPgid}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// Add registers a new job. The pid list must be non-empty; pgid defaults
// to the first pid if zero.
func (t *Table) Add(pgid int, pids []int, cmd string, foreground bool) *Job {
	if len(pids) == 0 {
		panic("jobs: Add with no pids")
	}
	if pgid == 0 {
		pgid = pids[0]
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	j := &Job{
		ID: t.nextID, Pgid: pgid, Pids: append([]int(nil), pids...),
		State: Running, Cmd: cmd, Foreground: foreground,
		lastPid: pids[len(pids)-1], remaining: len(pids),
	}
	t.nextID++
	t.jobs = append(t.jobs, j)
	logger.Printf("job [%d] added: pgid %d, %d pid(s)", j.ID, j.Pgid, len(pids))
	return j
}

// Remove deletes the job from the table.
func (t *Table) Remove(job *Job) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(job)
}

func (t *Table) removeLocked(job *Job) {
	for i, j := range t.jobs {
		if j == job {
			t.jobs = append(t.jobs[:i], t.jobs[i+1:]...)
			return
		}
	}
}

// Find returns the job with the given id, or nil.
func (t *Table) Find(id int) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

// MostRecent returns the most recently added job that is still Running or
// Stopped, or nil.
func (t *Table) MostRecent() *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.jobs) - 1; i >= 0; i-- {
		if t.jobs[i].State == Running || t.jobs[i].State == Stopped {
			return t.jobs[i]
		}
	}
	return nil
}

// WaitForeground hands the terminal to the job, blocks until it leaves the
// Running state, reclaims the terminal, and returns the job's status. Done
// and Killed jobs are removed from the table; a stopped job stays, to be
// resumed by fg or bg.
func (t *Table) WaitForeground(job *Job) int {
	t.giveTerminal(job.Pgid)
	t.mu.Lock()
	for job.State == Running {
		t.cond.Wait()
	}
	state, status := job.State, job.exitStatus
	if state == Done || state == Killed {
		job.Notified = true
		t.removeLocked(job)
	} else {
		// Stopped; it becomes a background job until resumed.
		job.Foreground = false
	}
	t.mu.Unlock()
	t.takeTerminal()
	if state == Stopped {
		return 128 + int(unix.SIGTSTP)
	}
	return status
}

// ContinueForeground resumes a stopped job in the foreground: terminal
// first, then SIGCONT to the group, then wait.
func (t *Table) ContinueForeground(job *Job) int {
	t.mu.Lock()
	job.State = Running
	job.Notified = false
	job.Foreground = true
	t.mu.Unlock()
	t.giveTerminal(job.Pgid)
	unix.Kill(-job.Pgid, unix.SIGCONT)
	return t.WaitForeground(job)
}

// ContinueBackground resumes a stopped job in the background.
func (t *Table) ContinueBackground(job *Job) {
	t.mu.Lock()
	job.State = Running
	job.Notified = false
	job.Foreground = false
	t.mu.Unlock()
	unix.Kill(-job.Pgid, unix.SIGCONT)
}

// CheckBackground prints one status line for every job that has changed
// state without the user having been told, and removes the finished ones.
// The shell calls it at the top of each prompt cycle.
func (t *Table) CheckBackground(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var kept []*Job
	for _, j := range t.jobs {
		if !j.Notified && !j.Foreground && j.State != Running {
			fmt.Fprintf(w, "[%d]%c %-8s %s\n", j.ID, t.markLocked(j), j.State, j.Cmd)
			j.Notified = true
		}
		if j.Notified && (j.State == Done || j.State == Killed) {
			continue
		}
		kept = append(kept, j)
	}
	t.jobs = kept
}

// List prints every job in the table, for the jobs builtin.
func (t *Table) List(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		fmt.Fprintf(w, "[%d]%c %-8s %s\n", j.ID, t.markLocked(j), j.State, j.Cmd)
	}
}

// markLocked returns '+' for the most recent job, '-' for the one before
// it, and ' ' otherwise.
func (t *Table) markLocked(job *Job) byte {
	n := len(t.jobs)
	if n > 0 && t.jobs[n-1] == job {
		return '+'
	}
	if n > 1 && t.jobs[n-2] == job {
		return '-'
	}
	return ' '
}

// Shutdown kills every remaining job's process group and reaps it. Called
// when the shell exits.
func (t *Table) Shutdown() {
	t.mu.Lock()
	jobs := append([]*Job(nil), t.jobs...)
	t.jobs = nil
	t.mu.Unlock()
	for _, j := range jobs {
		if j.State == Running || j.State == Stopped {
			unix.Kill(-j.Pgid, unix.SIGKILL)
			unix.Kill(-j.Pgid, unix.SIGCONT)
			for _, pid := range j.Pids {
				if pid != 0 {
					var ws unix.WaitStatus
					unix.Wait4(pid, &ws, 0, nil)
				}
			}
		}
	}
}

// giveTerminal makes pgid the foreground process group of the terminal.
// A no-op for non-interactive shells.
func (t *Table) giveTerminal(pgid int) {
	if t.ttyFd < 0 {
		return
	}
	if err := sys.Tcsetpgrp(t.ttyFd, pgid); err != nil {
		logger.Printf("tcsetpgrp %d: %v", pgid, err)
	}
}

// takeTerminal returns the terminal to the shell's own process group.
func (t *Table) takeTerminal() {
	if t.ttyFd < 0 {
		return
	}
	if err := sys.Tcsetpgrp(t.ttyFd, t.shellPgid); err != nil {
		logger.Printf("tcsetpgrp shell %d: %v", t.shellPgid, err)
	}
}
