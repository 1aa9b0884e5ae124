package glob

import (
	"os"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	mkdirs  = []string{"a", "b", "c", "d1", "d1/e"}
	creates = []string{"a/X", "a/Y", "b/X", "c/Y", "dX", "d1/e/X",
		"lorem", "ipsum", ".hidden"}
)

var globCases = []struct {
	pattern string
	want    []string
}{
	{"*", []string{"a", "b", "c", "d1", "dX", "ipsum", "lorem"}},
	{"*/", []string{"a/", "b/", "c/", "d1/"}},
	{"*/X", []string{"a/X", "b/X"}},
	{"?", []string{"a", "b", "c"}},
	{"d?", []string{"d1", "dX"}},
	{"l*m", []string{"lorem"}},
	{"*X", []string{"dX"}},
	{"[ab]/X", []string{"a/X", "b/X"}},
	{"a/[XY]", []string{"a/X", "a/Y"}},
	{"[!ab]*", []string{"c", "d1", "dX", "ipsum", "lorem"}},
	{"[i-l]*", []string{"ipsum", "lorem"}},
	{"d1/e/X", []string{"d1/e/X"}},
	{"*/*/[X]", []string{"d1/e/X"}},
	{".*", []string{".hidden"}},
	{"nomatch*", nil},
	{"lorem", []string{"lorem"}},
}

func inTempDir(t *testing.T) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func TestGlob(t *testing.T) {
	inTempDir(t)
	for _, dir := range mkdirs {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, file := range creates {
		f, err := os.Create(file)
		if err != nil {
			t.Fatal(err)
		}
		f.Close()
	}

	for _, tc := range globCases {
		names := Glob(tc.pattern)
		want := append([]string(nil), tc.want...)
		sort.Strings(want)
		if diff := cmp.Diff(want, names); diff != "" {
			t.Errorf("Glob(%q) (-want +got):\n%s", tc.pattern, diff)
		}
	}
}

func TestGlobInterrupt(t *testing.T) {
	inTempDir(t)
	for _, name := range []string{"x1", "x2", "x3"} {
		f, err := os.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	n := 0
	complete := Parse("x*").Glob(func(string) bool {
		n++
		return false
	})
	if complete {
		t.Error("Glob returned true after the callback asked to stop")
	}
	if n != 1 {
		t.Errorf("callback ran %d times after asking to stop, want 1", n)
	}
}
