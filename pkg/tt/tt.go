// Package tt drives table tests: a Table of Args(...).Rets(...) cases
// runs against one function, and mismatching return values are
// reported as go-cmp diffs.
package tt

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// Table is a list of test cases.
type Table []*Case

// Case pairs the arguments of one call with the wanted return values.
type Case struct {
	args []any
	want []any
}

// Args starts a case with the arguments to call the function with.
func Args(args ...any) *Case {
	return &Case{args: args}
}

// Rets sets the return values the case wants and returns the case.
func (c *Case) Rets(want ...any) *Case {
	c.want = want
	return c
}

// NamedFn is the function under test plus the name to report it by.
type NamedFn struct {
	name string
	body any
}

// Fn names a function for failure messages.
func Fn(name string, body any) NamedFn {
	return NamedFn{name, body}
}

// T is the part of testing.T that Test uses.
type T interface {
	Helper()
	Errorf(format string, args ...any)
}

// Test calls fn with the arguments of each case and compares the
// return values against the case's wanted values.
func Test(t T, fn NamedFn, tests Table) {
	t.Helper()
	fnv := reflect.ValueOf(fn.body)
	for _, c := range tests {
		got := call(fnv, c.args)
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("%s(%s) returns (-want +got):\n%s",
				fn.name, fmtArgs(c.args), diff)
		}
	}
}

func call(fnv reflect.Value, args []any) []any {
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		in[i] = reflect.ValueOf(arg)
	}
	out := fnv.Call(in)
	rets := make([]any, len(out))
	for i, ret := range out {
		rets[i] = ret.Interface()
	}
	return rets
}

func fmtArgs(args []any) string {
	reprs := make([]string, len(args))
	for i, arg := range args {
		reprs[i] = fmt.Sprintf("%v", arg)
	}
	return strings.Join(reprs, ", ")
}
