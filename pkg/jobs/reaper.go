//go:build unix

package jobs

import (
	"syscall"

	"golang.org/x/sys/unix"

	"src.vsh.sh/pkg/sys"
)

// StartReaper spawns the goroutine that makes the wait4 calls while the
// shell runs; only Shutdown waits for children outside it. It drains
// child status changes whenever SIGCHLD arrives and applies them to the
// table under its lock; it never allocates job records, prints, or removes
// jobs. The returned function stops the reaper.
func (t *Table) StartReaper() func() {
	sigCh := sys.NotifySignals(syscall.SIGCHLD)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sigCh:
				t.reap()
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

// reap drains all pending child status changes without blocking.
func (t *Table) reap() {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG|unix.WUNTRACED|unix.WCONTINUED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil || pid <= 0 {
			// ECHILD: nothing left to reap.
			return
		}
		t.apply(pid, ws)
	}
}

// apply records one wait status against the owning job.
func (t *Table) apply(pid int, ws unix.WaitStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, slot := t.findPidLocked(pid)
	if job == nil {
		logger.Printf("reaped unknown pid %d", pid)
		t.cond.Broadcast()
		return
	}
	switch {
	case ws.Stopped():
		job.State = Stopped
		job.Notified = false
	case ws.Continued():
		job.State = Running
		job.Notified = false
	case ws.Exited(), ws.Signaled():
		job.Pids[slot] = 0
		job.remaining--
		if pid == job.lastPid {
			if ws.Signaled() {
				job.exitStatus = 128 + int(ws.Signal())
			} else {
				job.exitStatus = ws.ExitStatus()
			}
		}
		if job.remaining == 0 {
			if ws.Signaled() {
				job.State = Killed
			} else {
				job.State = Done
			}
			job.Notified = false
			logger.Printf("job [%d] finished: %s, status %d",
				job.ID, job.State, job.exitStatus)
		}
	}
	t.cond.Broadcast()
}

func (t *Table) findPidLocked(pid int) (*Job, int) {
	for _, j := range t.jobs {
		for i, p := range j.Pids {
			if p == pid {
				return j, i
			}
		}
	}
	return nil, -1
}

// InterruptForeground delivers SIGINT to the foreground job's process
// group, for non-interactive shells where the terminal driver will not do
// it.
func (t *Table) InterruptForeground() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.Foreground && j.State == Running {
			unix.Kill(-j.Pgid, unix.SIGINT)
		}
	}
}
