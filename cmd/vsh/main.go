// Vsh is a POSIX-style shell for interactive use and scripting, with job
// control, persistent command history and a built-in language server.
package main

import (
	"os"

	"src.vsh.sh/pkg/buildinfo"
	"src.vsh.sh/pkg/lsp"
	"src.vsh.sh/pkg/prog"
	"src.vsh.sh/pkg/shell"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(buildinfo.Program, lsp.Program{}, shell.Program{})))
}
