//go:build unix

package sys

import (
	"os"
	"os/signal"
)

const sigsChanBufferSize = 256

// NotifySignals returns a buffered channel on which the given signals are
// delivered.
func NotifySignals(sigs ...os.Signal) chan os.Signal {
	sigCh := make(chan os.Signal, sigsChanBufferSize)
	signal.Notify(sigCh, sigs...)
	return sigCh
}
