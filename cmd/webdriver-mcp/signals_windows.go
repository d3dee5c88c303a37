//go:build windows

package main

import (
	"os"
	"os/signal"
)

// setupSignalHandling sets up signal handling for Windows, where only
// os.Interrupt (Ctrl+C) is reliably delivered.
func setupSignalHandling(sigChan chan os.Signal) {
	signal.Notify(sigChan, os.Interrupt)
}

func stopSignalHandling(sigChan chan os.Signal) {
	signal.Stop(sigChan)
}
