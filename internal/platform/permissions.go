package platform

import (
	"fmt"
	"os"
	"runtime"
)

// Chmod sets the permission bits of path. Windows has no Unix permission
// bits, so it is a no-op there.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return nil
}
