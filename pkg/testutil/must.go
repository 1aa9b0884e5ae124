package testutil

import (
	"io"
	"os"
)

// Must panics if err is not nil. It wraps setup calls whose failure
// means the test cannot meaningfully proceed.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}

// MustPipe returns the two ends of a fresh OS pipe.
func MustPipe() (*os.File, *os.File) {
	r, w, err := os.Pipe()
	Must(err)
	return r, w
}

// MustReadAllAndClose reads r to the end and closes it.
func MustReadAllAndClose(r io.ReadCloser) []byte {
	data, err := io.ReadAll(r)
	Must(err)
	r.Close()
	return data
}

// MustMkdirAll creates each named directory along with any parents.
func MustMkdirAll(names ...string) {
	for _, name := range names {
		Must(os.MkdirAll(name, 0o700))
	}
}

// MustCreateEmpty creates an empty file at each named path.
func MustCreateEmpty(names ...string) {
	for _, name := range names {
		f, err := os.Create(name)
		Must(err)
		f.Close()
	}
}

// MustWriteFile writes data to the named file, creating it if needed.
func MustWriteFile(filename string, data []byte, perm os.FileMode) {
	Must(os.WriteFile(filename, data, perm))
}
