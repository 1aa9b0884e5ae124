//go:build linux

package jobs

import (
	"testing"

	"golang.org/x/sys/unix"
)

// Raw wait statuses in the Linux encoding, letting the state machine be
// driven without real child processes.
func exited(status int) unix.WaitStatus { return unix.WaitStatus(status << 8) }
func signaled(sig unix.Signal) unix.WaitStatus {
	return unix.WaitStatus(sig)
}
func stopped(sig unix.Signal) unix.WaitStatus {
	return unix.WaitStatus(0x7f | int(sig)<<8)
}

const continued = unix.WaitStatus(0xffff)

func TestApply_ExitTransitions(t *testing.T) {
	tab := newTestTable()
	job := tab.Add(0, []int{101, 102, 103}, "a | b | c", true)

	tab.apply(102, exited(1))
	if job.State != Running {
		t.Fatalf("state = %v after partial completion, want Running", job.State)
	}
	tab.apply(103, exited(7))
	tab.apply(101, exited(0))
	if job.State != Done {
		t.Fatalf("state = %v after all pids exited, want Done", job.State)
	}
	if job.Status() != 7 {
		t.Errorf("status = %d, want the last stage's 7", job.Status())
	}
	for i, pid := range job.Pids {
		if pid != 0 {
			t.Errorf("pid slot %d not zeroed: %d", i, pid)
		}
	}
}

func TestApply_SignalDeath(t *testing.T) {
	tab := newTestTable()
	job := tab.Add(0, []int{201}, "cmd", true)
	tab.apply(201, signaled(unix.SIGTERM))
	if job.State != Killed {
		t.Errorf("state = %v, want Killed", job.State)
	}
	if want := 128 + int(unix.SIGTERM); job.Status() != want {
		t.Errorf("status = %d, want %d", job.Status(), want)
	}
}

func TestApply_StopAndContinue(t *testing.T) {
	tab := newTestTable()
	job := tab.Add(0, []int{301}, "cmd", true)
	job.Notified = true

	tab.apply(301, stopped(unix.SIGTSTP))
	if job.State != Stopped {
		t.Errorf("state = %v, want Stopped", job.State)
	}
	if job.Notified {
		t.Error("notified flag not cleared on stop")
	}

	job.Notified = true
	tab.apply(301, continued)
	if job.State != Running {
		t.Errorf("state = %v, want Running", job.State)
	}
	if job.Notified {
		t.Error("notified flag not cleared on continue")
	}
}

func TestApply_UnknownPidIsIgnored(t *testing.T) {
	tab := newTestTable()
	job := tab.Add(0, []int{401}, "cmd", true)
	tab.apply(999, exited(0))
	if job.State != Running || job.Pids[0] != 401 {
		t.Error("unknown pid disturbed an existing job")
	}
}

func TestWaitForegroundRemovesFinishedJob(t *testing.T) {
	tab := newTestTable()
	job := tab.Add(0, []int{501}, "cmd", true)
	go tab.apply(501, exited(3))
	status := tab.WaitForeground(job)
	if status != 3 {
		t.Errorf("WaitForeground = %d, want 3", status)
	}
	if tab.Find(job.ID) != nil {
		t.Error("finished foreground job left in table")
	}
}

func TestWaitForegroundKeepsStoppedJob(t *testing.T) {
	tab := newTestTable()
	job := tab.Add(0, []int{601}, "cmd", true)
	go tab.apply(601, stopped(unix.SIGTSTP))
	status := tab.WaitForeground(job)
	if want := 128 + int(unix.SIGTSTP); status != want {
		t.Errorf("WaitForeground = %d, want %d", status, want)
	}
	if tab.Find(job.ID) != job {
		t.Error("stopped job removed from table")
	}
	if job.Foreground {
		t.Error("stopped job still marked foreground")
	}
}
