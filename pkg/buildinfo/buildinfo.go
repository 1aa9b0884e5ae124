// Package buildinfo contains build information.
//
// Build information should be set during compilation by passing
// -ldflags "-X src.vsh.sh/pkg/buildinfo.Var=value" to "go build".
package buildinfo

import (
	"fmt"
	"os"

	"src.vsh.sh/pkg/prog"
)

// Version identifies the version of vsh. On development commits, it
// identifies the next release.
const Version = "v0.3.0"

// VersionSuffix is appended to Version in the output of "vsh -version" to
// build the full version string. It can be overridden when building.
var VersionSuffix = "-dev.unknown"

// Program is the version subprogram.
var Program prog.Program = program{}

type program struct{}

func (program) Run(fds [3]*os.File, f *prog.Flags, _ []string) error {
	if !f.Version {
		return prog.ErrNotSuitable
	}
	fmt.Fprintln(fds[1], Version+VersionSuffix)
	return nil
}
