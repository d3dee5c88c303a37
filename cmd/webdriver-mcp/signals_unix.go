//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandling routes SIGINT, SIGTERM and SIGHUP to the shutdown routine.
func setupSignalHandling(sigChan chan os.Signal) {
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}

func stopSignalHandling(sigChan chan os.Signal) {
	signal.Stop(sigChan)
}
