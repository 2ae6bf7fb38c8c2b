//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir  string // HOME, holds ~/.bigsudo
	RolesDir string // ANSIBLE_ROLES_PATH
	BinDir   string // stub ansible binaries, first on PATH
	WorkDir  string // where playbooks and downloads live
	LogFile  string // every stub invocation is appended here
}

const stubPlaybook = `#!/bin/sh
echo "ansible-playbook $* callback=$ANSIBLE_STDOUT_CALLBACK" >> "$STUB_LOG"
exit "${STUB_PLAYBOOK_EXIT:-0}"
`

// The galaxy stub answers "list" from $STUB_LIST and, on install, creates
// a role directory named after the last argument.
const stubGalaxy = `#!/bin/sh
echo "ansible-galaxy $*" >> "$STUB_LOG"
if [ "$1" = "list" ]; then
  [ -f "$STUB_LIST" ] && cat "$STUB_LIST"
  exit 0
fi
for a; do last=$a; done
case "$last" in
  git+ssh://*) [ -n "$STUB_SSH_FAIL" ] && exit 128 ;;
esac
case "$*" in
  *" -r "*) exit 0 ;;
esac
name=$(basename "$last" .git)
mkdir -p "$ANSIBLE_ROLES_PATH/$name/tasks"
exit 0
`

// setupTestEnv creates isolated temp directories, installs the stubs and
// sets environment variables so every operation is sandboxed. The env vars
// are restored after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub binaries are shell scripts")
	}

	env := &testEnv{
		HomeDir:  t.TempDir(),
		RolesDir: filepath.Join(t.TempDir(), "roles"),
		BinDir:   t.TempDir(),
		WorkDir:  t.TempDir(),
	}
	env.LogFile = filepath.Join(env.BinDir, "calls.log")

	writeExecutable(t, filepath.Join(env.BinDir, "ansible-playbook"), stubPlaybook)
	writeExecutable(t, filepath.Join(env.BinDir, "ansible-galaxy"), stubGalaxy)

	t.Setenv("HOME", env.HomeDir)
	t.Setenv("ANSIBLE_ROLES_PATH", env.RolesDir)
	t.Setenv("PATH", env.BinDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv("STUB_LOG", env.LogFile)
	t.Setenv("STUB_LIST", filepath.Join(env.BinDir, "list.txt"))
	t.Setenv("SSHPORT", "")

	return env
}

// calls returns the logged stub invocations.
func (e *testEnv) calls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(e.LogFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("reading stub log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func writeExecutable(t *testing.T, path, content string) {
	t.Helper()
	writeFile(t, path, content)
	if err := os.Chmod(path, 0755); err != nil {
		t.Fatalf("chmod %s: %v", path, err)
	}
}

// assertDirExists fails the test if the directory does not exist.
func assertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory to exist: %s (error: %v)", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory, but it is a file", path)
	}
}

// assertCalled fails unless some logged call contains every substring.
func assertCalled(t *testing.T, calls []string, substrs ...string) {
	t.Helper()
	for _, c := range calls {
		ok := true
		for _, s := range substrs {
			if !strings.Contains(c, s) {
				ok = false
				break
			}
		}
		if ok {
			return
		}
	}
	t.Errorf("no call contains %q.\nCalls:\n%s", substrs, strings.Join(calls, "\n"))
}
