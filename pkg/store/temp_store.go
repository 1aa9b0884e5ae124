package store

import (
	"fmt"
	"os"
)

// MustGetTempStore returns a Store backed by a temporary file, and a
// cleanup function that should be called when the Store is no longer
// used.
func MustGetTempStore() (DBStore, func()) {
	f, err := os.CreateTemp("", "vsh.test")
	if err != nil {
		panic(fmt.Sprintf("open temp file: %v", err))
	}
	st, err := NewStore(f.Name())
	if err != nil {
		panic(fmt.Sprintf("create store: %v", err))
	}
	return st, func() {
		st.Close()
		f.Close()
		err = os.Remove(f.Name())
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to remove temp file:", err)
		}
	}
}
