//go:build windows

package client

import (
	"os"
	"os/signal"
	"syscall"
)

// SIGABRT cannot be delivered by the console host; interrupt and terminate
// cover the shutdown paths Windows actually raises.
func notifySignals(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
