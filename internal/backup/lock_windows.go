//go:build windows

package backup

import "os"

// platformProcessAlive opens the process by PID; os.FindProcess on Windows
// actually looks the handle up (unlike Unix, where it always succeeds), so
// a successful open is itself the liveness signal.
func platformProcessAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}
