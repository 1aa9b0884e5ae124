// Package env implements the shell's variable table. Variables carry an
// exported flag; exported variables are mirrored into the process
// environment so that spawned children inherit them.
package env

import (
	"os"
	"sort"
	"strings"
)

type entry struct {
	value    string
	exported bool
}

// Table is a string-keyed variable table. The zero value is not usable;
// call New or FromEnviron.
type Table struct {
	vars map[string]entry
}

// New returns an empty table.
func New() *Table {
	return &Table{vars: make(map[string]entry)}
}

// FromEnviron builds a table from "KEY=VALUE" pairs, as returned by
// os.Environ. All entries are exported.
func FromEnviron(environ []string) *Table {
	t := New()
	for _, kv := range environ {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		t.vars[kv[:i]] = entry{value: kv[i+1:], exported: true}
	}
	return t
}

// Get returns the value of the variable and whether it is set.
func (t *Table) Get(key string) (string, bool) {
	e, ok := t.vars[key]
	return e.value, ok
}

// GetDefault returns the value of the variable, or the empty string if it
// is not set.
func (t *Table) GetDefault(key string) string {
	return t.vars[key].value
}

// Set sets a variable. An exported variable is also written to the process
// environment.
func (t *Table) Set(key, value string, exported bool) {
	t.vars[key] = entry{value: value, exported: exported}
	if exported {
		os.Setenv(key, value)
	}
}

// Unset removes a variable, from the process environment too if it was
// exported.
func (t *Table) Unset(key string) {
	if e, ok := t.vars[key]; ok && e.exported {
		os.Unsetenv(key)
	}
	delete(t.vars, key)
}

// Export marks an existing variable as exported and mirrors it into the
// process environment. Exporting an unset variable sets it to the empty
// string.
func (t *Table) Export(key string) {
	e := t.vars[key]
	e.exported = true
	t.vars[key] = e
	os.Setenv(key, e.value)
}

// Exported reports whether the variable is set and exported.
func (t *Table) Exported(key string) bool {
	e, ok := t.vars[key]
	return ok && e.exported
}

// BuildEnvp returns the exported variables as sorted "KEY=VALUE" strings,
// suitable for passing to a child process.
func (t *Table) BuildEnvp() []string {
	var envp []string
	for k, e := range t.vars {
		if e.exported {
			envp = append(envp, k+"="+e.value)
		}
	}
	sort.Strings(envp)
	return envp
}

// Names returns all variable names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.vars))
	for k := range t.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the table. Mutations of the clone
// do not affect the original, though exported sets still write through to
// the process environment.
func (t *Table) Clone() *Table {
	c := New()
	for k, e := range t.vars {
		c.vars[k] = e
	}
	return c
}
