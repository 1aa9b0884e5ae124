// Package testutil provides the small helpers shared by this module's
// tests: panic-on-error wrappers for filesystem and pipe setup, and
// scoped environment overrides.
package testutil

import "os"

// Cleanuper is the subset of [testing.TB] needed to register cleanup
// functions, so helpers can take either a *testing.T or a *testing.B.
type Cleanuper interface {
	Cleanup(func())
}

// Setenv sets an environment variable until the end of the test and
// returns value.
func Setenv(c Cleanuper, name, value string) string {
	restoreEnv(c, name)
	os.Setenv(name, value)
	return value
}

// Unsetenv removes an environment variable until the end of the test.
func Unsetenv(c Cleanuper, name string) {
	restoreEnv(c, name)
	os.Unsetenv(name)
}

func restoreEnv(c Cleanuper, name string) {
	if old, ok := os.LookupEnv(name); ok {
		c.Cleanup(func() { os.Setenv(name, old) })
	} else {
		c.Cleanup(func() { os.Unsetenv(name) })
	}
}
