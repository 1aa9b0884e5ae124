package eval

import (
	"os"
	"strings"
	"testing"
	"time"

	"src.vsh.sh/pkg/store/storedefs"
	"src.vsh.sh/pkg/testutil"
)

// inTempDir moves the test into a fresh directory and returns its
// resolved path. The working directory is restored on cleanup.
func inTempDir(t *testing.T) string {
	t.Helper()
	old, err := os.Getwd()
	testutil.Must(err)
	testutil.Must(os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(old) })
	cwd, err := os.Getwd()
	testutil.Must(err)
	return cwd
}

func TestCd(t *testing.T) {
	dir := inTempDir(t)
	testutil.MustMkdirAll("sub")
	ev := newTestEvaler()

	stdout, _, status := run(ev, "cd sub; pwd")
	if want := dir + "/sub\n"; stdout != want || status != 0 {
		t.Errorf("cd sub; pwd: got %q, %d; want %q, 0", stdout, status, want)
	}
	if v := ev.Env.GetDefault("PWD"); v != dir+"/sub" {
		t.Errorf("PWD = %q, want %q", v, dir+"/sub")
	}
	if v := ev.Env.GetDefault("OLDPWD"); v != dir {
		t.Errorf("OLDPWD = %q, want %q", v, dir)
	}

	// cd - swaps and prints the new directory.
	stdout, _, status = run(ev, "cd -")
	if stdout != dir+"\n" || status != 0 {
		t.Errorf("cd -: got %q, %d; want %q, 0", stdout, status, dir+"\n")
	}
}

func TestCd_Home(t *testing.T) {
	dir := inTempDir(t)
	testutil.MustMkdirAll("sub")
	ev := newTestEvaler()
	ev.Env.Set("HOME", dir, true)
	stdout, _, _ := run(ev, "cd sub; cd; pwd")
	if stdout != dir+"\n" {
		t.Errorf("cd; pwd: got %q, want %q", stdout, dir+"\n")
	}
}

func TestCd_Missing(t *testing.T) {
	inTempDir(t)
	ev := newTestEvaler()
	_, stderr, status := run(ev, "cd nowhere")
	if status != 1 || !strings.Contains(stderr, "cd: nowhere") {
		t.Errorf("cd nowhere: got status %d, stderr %q", status, stderr)
	}
}

func TestPushdPopdDirs(t *testing.T) {
	dir := inTempDir(t)
	testutil.MustMkdirAll("a", "b")
	ev := newTestEvaler()

	stdout, _, status := run(ev, "pushd a")
	if want := dir + "/a " + dir + "\n"; stdout != want || status != 0 {
		t.Errorf("pushd a: got %q, %d; want %q, 0", stdout, status, want)
	}
	stdout, _, _ = run(ev, "pushd "+dir+"/b")
	if want := dir + "/b " + dir + "/a " + dir + "\n"; stdout != want {
		t.Errorf("pushd b: got %q, want %q", stdout, want)
	}
	// pushd with no argument swaps the top two.
	stdout, _, _ = run(ev, "pushd")
	if want := dir + "/a " + dir + "/b " + dir + "\n"; stdout != want {
		t.Errorf("pushd: got %q, want %q", stdout, want)
	}
	stdout, _, _ = run(ev, "popd")
	if want := dir + "/b " + dir + "\n"; stdout != want {
		t.Errorf("popd: got %q, want %q", stdout, want)
	}
	_, stderr, status := run(ev, "popd; popd; popd")
	if status != 1 || !strings.Contains(stderr, "directory stack empty") {
		t.Errorf("popd past bottom: got status %d, stderr %q", status, stderr)
	}
}

func TestExport(t *testing.T) {
	ev := newTestEvaler()
	run(ev, "export FOO=bar")
	if !ev.Env.Exported("FOO") {
		t.Error("FOO not exported")
	}
	run(ev, "BAZ=qux; export BAZ")
	if !ev.Env.Exported("BAZ") {
		t.Error("BAZ not exported")
	}
	stdout, _, _ := run(ev, "export")
	if !strings.Contains(stdout, "export FOO=bar\n") || !strings.Contains(stdout, "export BAZ=qux\n") {
		t.Errorf("export listing missing entries: %q", stdout)
	}

	_, stderr, status := run(ev, "export 1bad")
	if status != 1 || !strings.Contains(stderr, "not a valid identifier") {
		t.Errorf("export 1bad: got status %d, stderr %q", status, stderr)
	}
}

func TestUnset(t *testing.T) {
	ev := newTestEvaler()
	run(ev, "FOO=bar; unset FOO")
	if _, ok := ev.Env.Get("FOO"); ok {
		t.Error("FOO still set after unset")
	}
}

func TestAliasBuiltin(t *testing.T) {
	ev := newTestEvaler()
	run(ev, "alias ll='echo long'")
	if got := ev.ExpandAliases("ll x"); got != "echo long x" {
		t.Errorf("ExpandAliases = %q, want %q", got, "echo long x")
	}
	stdout, _, _ := run(ev, "alias")
	if stdout != "alias ll='echo long'\n" {
		t.Errorf("alias listing: %q", stdout)
	}
	stdout, _, _ = run(ev, "alias ll")
	if stdout != "alias ll='echo long'\n" {
		t.Errorf("alias ll: %q", stdout)
	}
	run(ev, "unalias ll")
	if got := ev.ExpandAliases("ll x"); got != "ll x" {
		t.Errorf("alias survives unalias: %q", got)
	}
	_, stderr, status := run(ev, "unalias nosuch")
	if status != 1 || !strings.Contains(stderr, "not found") {
		t.Errorf("unalias nosuch: got status %d, stderr %q", status, stderr)
	}
}

func TestType(t *testing.T) {
	dir := inTempDir(t)
	testutil.MustWriteFile("prog", []byte("#!/bin/sh\n"), 0o755)
	sub := dir + "/bin"
	testutil.MustMkdirAll("bin")
	testutil.MustWriteFile("bin/tool", []byte("#!/bin/sh\n"), 0o755)

	ev := newTestEvaler()
	ev.Env.Set("PATH", sub, true)
	run(ev, "alias ll='echo long'; f() { true; }")

	stdout, _, _ := run(ev, "type cd ll f prog tool")
	want := "cd is a shell builtin\n" +
		"ll is aliased to 'echo long'\n" +
		"f is a function\n" +
		"prog is prog\n" +
		"tool is " + sub + "/tool\n"
	if stdout != want {
		t.Errorf("type: got %q, want %q", stdout, want)
	}

	_, stderr, status := run(ev, "type nosuch")
	if status != 1 || !strings.Contains(stderr, "nosuch: not found") {
		t.Errorf("type nosuch: got status %d, stderr %q", status, stderr)
	}
}

type fakeHistory struct {
	cmds []storedefs.Cmd
}

func (h *fakeHistory) AllCmds() ([]storedefs.Cmd, error) { return h.cmds, nil }

func (h *fakeHistory) DelCmd(seq int) error {
	kept := h.cmds[:0]
	for _, cmd := range h.cmds {
		if cmd.Seq != seq {
			kept = append(kept, cmd)
		}
	}
	h.cmds = kept
	return nil
}

func TestHistoryBuiltin(t *testing.T) {
	ev := newTestEvaler()
	ev.History = &fakeHistory{[]storedefs.Cmd{
		{Text: "echo one", Seq: 1}, {Text: "echo two", Seq: 2}}}
	stdout, _, status := run(ev, "history")
	want := "    1  echo one\n    2  echo two\n"
	if stdout != want || status != 0 {
		t.Errorf("history: got %q, %d; want %q, 0", stdout, status, want)
	}

	stdout, _, status = run(ev, "history -d 1; history")
	if stdout != "    2  echo two\n" || status != 0 {
		t.Errorf("history -d 1: got %q, %d; want only entry 2", stdout, status)
	}

	_, _, status = run(ev, "history -d x")
	if status != 2 {
		t.Errorf("history -d x: status %d, want 2", status)
	}

	ev.History = nil
	_, _, status = run(ev, "history")
	if status != 1 {
		t.Errorf("history without store: status %d, want 1", status)
	}
}

func TestHistoryBuiltin_Timestamps(t *testing.T) {
	ev := newTestEvaler()
	ev.History = &fakeHistory{[]storedefs.Cmd{
		{Text: "ls", Seq: 1, When: time.Date(2026, 8, 6, 12, 30, 0, 0, time.UTC)}}}
	stdout, _, status := run(ev, "history -t")
	want := "    1  2026-08-06 12:30  ls\n"
	if stdout != want || status != 0 {
		t.Errorf("history -t: got %q, %d; want %q, 0", stdout, status, want)
	}
}

func TestReturnLocal_OutsideFunction(t *testing.T) {
	ev := newTestEvaler()
	_, stderr, status := run(ev, "return")
	if status != 1 || !strings.Contains(stderr, "return") {
		t.Errorf("return: got status %d, stderr %q", status, stderr)
	}
	_, stderr, status = run(ev, "local x=1")
	if status != 1 || !strings.Contains(stderr, "local") {
		t.Errorf("local: got status %d, stderr %q", status, stderr)
	}
}

func TestSource(t *testing.T) {
	inTempDir(t)
	testutil.MustWriteFile("lib.vsh", []byte("greeting=hello\necho $greeting $1\n"), 0o644)
	ev := newTestEvaler()
	stdout, _, status := run(ev, "source lib.vsh world")
	if stdout != "hello world\n" || status != 0 {
		t.Errorf("source: got %q, %d; want %q, 0", stdout, status, "hello world\n")
	}
	// Variables set by the sourced file land in the shell itself.
	if v := ev.Env.GetDefault("greeting"); v != "hello" {
		t.Errorf("greeting = %q, want hello", v)
	}
	stdout, _, _ = run(ev, ". lib.vsh again")
	if stdout != "hello again\n" {
		t.Errorf(". lib.vsh: got %q", stdout)
	}
	_, stderr, status := run(ev, "source missing.vsh")
	if status != 1 || !strings.Contains(stderr, "missing.vsh") {
		t.Errorf("source missing: got status %d, stderr %q", status, stderr)
	}
}

func TestRedir_OutputAppend(t *testing.T) {
	inTempDir(t)
	ev := newTestEvaler()
	run(ev, "echo one > out.txt; echo two >> out.txt")
	data, err := os.ReadFile("out.txt")
	testutil.Must(err)
	if string(data) != "one\ntwo\n" {
		t.Errorf("file = %q, want %q", data, "one\ntwo\n")
	}
	run(ev, "echo three > out.txt")
	data, err = os.ReadFile("out.txt")
	testutil.Must(err)
	if string(data) != "three\n" {
		t.Errorf("after truncate: %q, want %q", data, "three\n")
	}
}

func TestRedir_Dup(t *testing.T) {
	ev := newTestEvaler()
	stdout, stderr, _ := run(ev, "echo oops 1>&2")
	if stdout != "" || stderr != "oops\n" {
		t.Errorf("1>&2: stdout %q, stderr %q", stdout, stderr)
	}
	_, stderr, status := run(ev, "echo x 1>&9")
	if status != 1 || !strings.Contains(stderr, "bad file descriptor") {
		t.Errorf("1>&9: got status %d, stderr %q", status, stderr)
	}
}

func TestGlobExpansion(t *testing.T) {
	inTempDir(t)
	testutil.MustCreateEmpty("a.txt", "b.txt", "c.log")
	ev := newTestEvaler()
	stdout, _, _ := run(ev, "echo *.txt")
	if stdout != "a.txt b.txt\n" {
		t.Errorf("echo *.txt: %q", stdout)
	}
	stdout, _, _ = run(ev, "echo '*.txt'")
	if stdout != "*.txt\n" {
		t.Errorf("quoted glob: %q", stdout)
	}
	stdout, _, _ = run(ev, "echo nomatch*")
	if stdout != "nomatch*\n" {
		t.Errorf("no match keeps literal: %q", stdout)
	}
}

func TestTildeExpansion(t *testing.T) {
	ev := newTestEvaler()
	ev.Env.Set("HOME", "/home/test", true)
	stdout, _, _ := run(ev, "echo ~/x")
	if stdout != "/home/test/x\n" {
		t.Errorf("echo ~/x: %q", stdout)
	}
	stdout, _, _ = run(ev, "echo '~'")
	if stdout != "~\n" {
		t.Errorf("quoted tilde: %q", stdout)
	}
}
