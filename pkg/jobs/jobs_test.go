package jobs

import (
	"strings"
	"testing"
)

func newTestTable() *Table { return NewTable(-1, 0) }

func TestAddAssignsSequentialIDs(t *testing.T) {
	tab := newTestTable()
	j1 := tab.Add(0, []int{101}, "sleep 5", false)
	j2 := tab.Add(0, []int{102, 103}, "a | b", false)
	if j1.ID != 1 || j2.ID != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", j1.ID, j2.ID)
	}
	if j1.Pgid != 101 {
		t.Errorf("pgid defaulted to %d, want first pid 101", j1.Pgid)
	}
	if j2.Pgid != 102 {
		t.Errorf("pipeline pgid = %d, want 102", j2.Pgid)
	}
	tab.Remove(j1)
	j3 := tab.Add(0, []int{104}, "c", false)
	if j3.ID != 3 {
		t.Errorf("id reused after removal: got %d, want 3", j3.ID)
	}
}

func TestFindAndMostRecent(t *testing.T) {
	tab := newTestTable()
	j1 := tab.Add(0, []int{101}, "one", false)
	j2 := tab.Add(0, []int{102}, "two", false)
	if got := tab.Find(1); got != j1 {
		t.Errorf("Find(1) = %v", got)
	}
	if got := tab.Find(7); got != nil {
		t.Errorf("Find(7) = %v, want nil", got)
	}
	if got := tab.MostRecent(); got != j2 {
		t.Errorf("MostRecent = %v, want job 2", got)
	}
	j2.State = Done
	if got := tab.MostRecent(); got != j1 {
		t.Errorf("MostRecent after j2 done = %v, want job 1", got)
	}
}

func TestList(t *testing.T) {
	tab := newTestTable()
	tab.Add(0, []int{101}, "sleep 5", false)
	tab.Add(0, []int{102}, "vim notes", false)
	tab.Find(2).State = Stopped
	var sb strings.Builder
	tab.List(&sb)
	want := "[1]- Running  sleep 5\n[2]+ Stopped  vim notes\n"
	if sb.String() != want {
		t.Errorf("List output:\n%q\nwant:\n%q", sb.String(), want)
	}
}

func TestCheckBackgroundReportsAndRemoves(t *testing.T) {
	tab := newTestTable()
	j1 := tab.Add(0, []int{101}, "done job", false)
	j2 := tab.Add(0, []int{102}, "still running", false)
	j3 := tab.Add(0, []int{103}, "stopped job", false)
	j1.State = Done
	j3.State = Stopped

	var sb strings.Builder
	tab.CheckBackground(&sb)
	out := sb.String()
	if !strings.Contains(out, "[1]  Done     done job") {
		t.Errorf("missing Done line in %q", out)
	}
	if !strings.Contains(out, "[3]+ Stopped  stopped job") {
		t.Errorf("missing Stopped line in %q", out)
	}
	if strings.Contains(out, "still running") {
		t.Errorf("running job reported in %q", out)
	}

	if tab.Find(1) != nil {
		t.Error("done job not removed after notification")
	}
	if tab.Find(3) != j3 {
		t.Error("stopped job removed; it should stay until resumed")
	}
	if tab.Find(2) != j2 {
		t.Error("running job removed")
	}

	// A second scan is quiet: everything has been notified.
	sb.Reset()
	tab.CheckBackground(&sb)
	if sb.String() != "" {
		t.Errorf("second CheckBackground printed %q", sb.String())
	}
}
