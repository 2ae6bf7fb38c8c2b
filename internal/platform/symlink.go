package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/yourlabs/bigsudo/internal/branding"
)

// LinkDir creates link as a symbolic link to the directory target. target
// is made absolute so the link stays valid regardless of the working
// directory. On Windows this requires developer mode.
func LinkDir(target, link string) error {
	abs, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", target, err)
	}
	if err := os.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(link), err)
	}
	if err := os.Symlink(abs, link); err != nil {
		if runtime.GOOS == "windows" {
			return fmt.Errorf("symlinking %s (enable Windows developer mode): %w", link, err)
		}
		return fmt.Errorf("symlinking %s -> %s: %w", link, abs, err)
	}
	return nil
}

// IsLink reports whether path is a symbolic link. Missing paths are not links.
func IsLink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

// ReadLinkTarget returns the target of a symlink.
func ReadLinkTarget(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", fmt.Errorf("reading link %s: %w", path, err)
	}
	return target, nil
}

// RemoveInstalled removes an installed role: a symlink is unlinked without
// touching its target, a directory is removed recursively. Missing paths
// are not an error.
func RemoveInstalled(path string) error {
	if IsLink(path) {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing link %s: %w", path, err)
		}
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// IsSymlinkSupported returns true if the current platform supports native symlinks.
// On Windows this attempts a test symlink to check developer mode.
func IsSymlinkSupported() bool {
	if runtime.GOOS != "windows" {
		return true
	}

	tmpDir := os.TempDir()
	link := filepath.Join(tmpDir, "."+branding.CLIName()+"-symlink-test")
	defer os.Remove(link)

	return os.Symlink(tmpDir, link) == nil
}
