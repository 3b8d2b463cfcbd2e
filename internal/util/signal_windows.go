//go:build windows

package util

import "os"

// ShutdownSignals returns the signals to listen for graceful shutdown.
func ShutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

// GracefulSignal attempts graceful process termination. Windows cannot
// deliver SIGINT to a child process; returning nil lets the command's
// WaitDelay kill take over instead of adding errors to the shutdown
// sequence.
func GracefulSignal(p *os.Process) error {
	return nil
}
