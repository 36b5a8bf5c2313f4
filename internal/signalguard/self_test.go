package signalguard

import "os"

func findSelf() (*os.Process, error) {
	return os.FindProcess(os.Getpid())
}
