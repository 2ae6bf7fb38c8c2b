package apply

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yourlabs/bigsudo/internal/cliargs"
	"github.com/yourlabs/bigsudo/internal/config"
	"github.com/yourlabs/bigsudo/internal/fetch"
	"github.com/yourlabs/bigsudo/internal/galaxy"
	"github.com/yourlabs/bigsudo/internal/runner"
	"github.com/yourlabs/bigsudo/internal/runner/runnertest"
)

type fixture struct {
	fake        *runnertest.Fake
	applier     *Applier
	workDir     string
	rolesPath   string
	playbookDir string
	stderr      *bytes.Buffer
}

func testSettings() config.Settings {
	return config.Settings{
		PlaybookBin:       "ansible-playbook",
		GalaxyBin:         "ansible-galaxy",
		PythonInterpreter: "python3",
		StdoutCallback:    "unixy",
		ControlPersist:    "120s",
		Become:            true,
	}
}

func newFixture(t *testing.T, settings config.Settings, opts ...fetch.Option) *fixture {
	t.Helper()
	t.Setenv("SSHPORT", "")
	tmp := t.TempDir()
	f := &fixture{
		fake:        runnertest.New(),
		workDir:     filepath.Join(tmp, "work"),
		rolesPath:   filepath.Join(tmp, "roles"),
		playbookDir: filepath.Join(tmp, "playbooks"),
		stderr:      &bytes.Buffer{},
	}
	if err := os.MkdirAll(f.workDir, 0755); err != nil {
		t.Fatal(err)
	}
	inst := galaxy.New(f.fake, galaxy.Options{GalaxyBin: settings.GalaxyBin, RolesPath: f.rolesPath})
	f.applier = New(f.fake, inst, Options{
		Settings:    settings,
		Stderr:      f.stderr,
		WorkDir:     f.workDir,
		PlaybookDir: f.playbookDir,
		Fetcher:     fetch.New(opts...),
	})
	return f
}

func (f *fixture) playbookCall(t *testing.T) runner.Command {
	t.Helper()
	calls := f.fake.CallsTo("ansible-playbook")
	if len(calls) != 1 {
		t.Fatalf("expected one ansible-playbook call, got %v", f.fake.Lines())
	}
	return calls[0]
}

func unsetCallback(t *testing.T) {
	t.Helper()
	t.Setenv(StdoutCallbackEnv, "")
	os.Unsetenv(StdoutCallbackEnv)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRole_InstallsAndApplies(t *testing.T) {
	unsetCallback(t)
	f := newFixture(t, testSettings())
	f.fake.On("ansible-playbook", runnertest.Response{ExitCode: 3})

	code, err := f.applier.Role(context.Background(), Request{
		Source: "geerlingguy.docker",
		Hosts:  []string{"deploy@web1.example.com"},
	})
	if err != nil {
		t.Fatalf("Role failed: %v", err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}

	if n := len(f.fake.CallsTo("ansible-galaxy install")); n != 1 {
		t.Errorf("galaxy install calls = %d, want 1", n)
	}

	call := f.playbookCall(t)
	want := []string{
		"ansible-playbook",
		"--become",
		"-e", "ansible_python_interpreter=python3",
		"--ssh-extra-args", "-o ControlMaster=auto -o ControlPersist=120s",
		"-u", "deploy",
		"-i", "web1.example.com,",
		"-e", "apply_role=geerlingguy.docker",
		filepath.Join(f.playbookDir, RolePlaybook),
	}
	if diff := cmp.Diff(want, call.Argv()); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ANSIBLE_STDOUT_CALLBACK=unixy"}, call.Env); diff != "" {
		t.Errorf("env mismatch (-want +got):\n%s", diff)
	}
	if call.Dir != f.workDir {
		t.Errorf("Dir = %q, want %q", call.Dir, f.workDir)
	}
	if !strings.Contains(f.stderr.String(), "+ ansible-playbook --become") {
		t.Errorf("stderr trace = %q", f.stderr.String())
	}
	if _, err := os.Stat(filepath.Join(f.playbookDir, RolePlaybook)); err != nil {
		t.Errorf("bundled playbook not materialized: %v", err)
	}
}

func TestRole_LocalDirectory(t *testing.T) {
	f := newFixture(t, testSettings())
	roleDir := filepath.Join(f.workDir, "myrole")
	writeFile(t, filepath.Join(roleDir, "tasks", "main.yml"), "")
	writeFile(t, filepath.Join(roleDir, "requirements.yml"), "- base\n")

	if _, err := f.applier.Role(context.Background(), Request{Source: "myrole"}); err != nil {
		t.Fatalf("Role failed: %v", err)
	}

	reqCalls := f.fake.CallsTo("ansible-galaxy install")
	if len(reqCalls) != 1 {
		t.Fatalf("expected one requirements install, got %v", f.fake.Lines())
	}
	if got := reqCalls[0].Args[len(reqCalls[0].Args)-1]; got != filepath.Join(roleDir, "requirements.yml") {
		t.Errorf("requirements path = %q", got)
	}
	if n := len(f.fake.CallsTo("ansible-galaxy list")); n != 0 {
		t.Errorf("local role should not consult the installed list")
	}

	argv := f.playbookCall(t).Argv()
	if !containsPair(argv, "-e", "apply_role="+roleDir) {
		t.Errorf("argv %v missing apply_role=%s", argv, roleDir)
	}
	if !containsPair(argv, "-c", "local") {
		t.Errorf("argv %v should target localhost", argv)
	}
}

func TestRole_InstallFailure(t *testing.T) {
	f := newFixture(t, testSettings())
	f.fake.On("ansible-galaxy install", runnertest.Response{ExitCode: 1})

	if _, err := f.applier.Role(context.Background(), Request{Source: "broken.role"}); err == nil {
		t.Fatal("expected error")
	}
	if calls := f.fake.CallsTo("ansible-playbook"); len(calls) != 0 {
		t.Error("ansible-playbook must not run after a failed install")
	}
}

func TestTasks_RelativePath(t *testing.T) {
	f := newFixture(t, testSettings())

	if _, err := f.applier.Tasks(context.Background(), Request{Source: "deploy.yml", Hosts: []string{"localhost"}}); err != nil {
		t.Fatalf("Tasks failed: %v", err)
	}
	argv := f.playbookCall(t).Argv()
	if !containsPair(argv, "-e", "apply_tasks="+filepath.Join(f.workDir, "deploy.yml")) {
		t.Errorf("argv %v missing absolute apply_tasks", argv)
	}
	if last := argv[len(argv)-1]; last != filepath.Join(f.playbookDir, TasksPlaybook) {
		t.Errorf("playbook = %q", last)
	}
}

func TestTasks_Download(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("- debug: msg=update\n"))
	}))
	defer server.Close()

	f := newFixture(t, testSettings(), fetch.WithHTTPClient(server.Client()))
	if _, err := f.applier.Tasks(context.Background(), Request{Source: server.URL + "/ops/update.yml"}); err != nil {
		t.Fatalf("Tasks failed: %v", err)
	}

	local := filepath.Join(f.workDir, "update.yml")
	if _, err := os.Stat(local); err != nil {
		t.Fatalf("task file not downloaded: %v", err)
	}
	if !containsPair(f.playbookCall(t).Argv(), "-e", "apply_tasks="+local) {
		t.Errorf("apply_tasks should point at the download")
	}
}

func TestPlaybook_Download(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("- hosts: all\n"))
	}))
	defer server.Close()

	f := newFixture(t, testSettings(), fetch.WithHTTPClient(server.Client()))
	if _, err := f.applier.Playbook(context.Background(), Request{Source: server.URL + "/site.yml"}); err != nil {
		t.Fatalf("Playbook failed: %v", err)
	}
	argv := f.playbookCall(t).Argv()
	if last := argv[len(argv)-1]; last != filepath.Join(f.workDir, "site.yml") {
		t.Errorf("playbook = %q", last)
	}
}

func TestPlaybook_DownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newFixture(t, testSettings(), fetch.WithHTTPClient(server.Client()))
	if _, err := f.applier.Playbook(context.Background(), Request{Source: server.URL + "/site.yml"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRun_Playbook(t *testing.T) {
	f := newFixture(t, testSettings())
	args := cliargs.Classify([]string{"@web1", "env=prod", "--check", "--nosudo"})

	if _, err := f.applier.Run(context.Background(), "site.yml", args); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{
		"ansible-playbook",
		"--check",
		"-e", "ansible_python_interpreter=python3",
		"--ssh-extra-args", "-o ControlMaster=auto -o ControlPersist=120s",
		"-i", "web1,",
		"-e", "env=prod",
		"site.yml",
	}
	if diff := cmp.Diff(want, f.playbookCall(t).Argv()); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_RoleTasks(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default main", []string{"root@db1"}, `apply_tasks='["main"]'`},
		{"named tasks", []string{"update", "root@db1", "backup"}, `apply_tasks='["update","backup"]'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testSettings())
			if _, err := f.applier.Run(context.Background(), "yourlabs.io/oss/postgres", cliargs.Classify(tt.args)); err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			argv := f.playbookCall(t).Argv()
			if !containsPair(argv, "-e", tt.want) {
				t.Errorf("argv %v missing %s", argv, tt.want)
			}
			if !containsPair(argv, "-e", "apply_role=postgres") {
				t.Errorf("argv %v missing apply_role=postgres", argv)
			}
			if !containsPair(argv, "-u", "root") {
				t.Errorf("argv %v missing -u root", argv)
			}
		})
	}
}

func TestExec_ExtraArgsFromSettings(t *testing.T) {
	s := testSettings()
	s.ExtraArgs = []string{"--diff"}
	s.Become = false
	s.PythonInterpreter = ""
	f := newFixture(t, s)

	if _, err := f.applier.Playbook(context.Background(), Request{Source: "site.yml", Flags: []string{"--check"}}); err != nil {
		t.Fatalf("Playbook failed: %v", err)
	}
	want := []string{"ansible-playbook", "--diff", "--check", "-c", "local", "-i", "localhost,", "site.yml"}
	if diff := cmp.Diff(want, f.playbookCall(t).Argv()); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
}

func TestExec_SSHPort(t *testing.T) {
	f := newFixture(t, testSettings())
	t.Setenv("SSHPORT", "2222")

	if _, err := f.applier.Playbook(context.Background(), Request{Source: "site.yml", Hosts: []string{"web1"}}); err != nil {
		t.Fatal(err)
	}
	if !containsPair(f.playbookCall(t).Argv(), "--ssh-extra-args", "-o ControlMaster=auto -o ControlPersist=120s -o Port=2222") {
		t.Errorf("argv %v missing port option", f.playbookCall(t).Argv())
	}
}

func TestExec_VerboseUsesDebugCallback(t *testing.T) {
	t.Setenv(StdoutCallbackEnv, "yaml")
	f := newFixture(t, testSettings())

	if _, err := f.applier.Playbook(context.Background(), Request{Source: "site.yml", Flags: []string{"-vv"}}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"ANSIBLE_STDOUT_CALLBACK=debug"}, f.playbookCall(t).Env); diff != "" {
		t.Errorf("env mismatch (-want +got):\n%s", diff)
	}
}

func TestExec_VerboseFromExtraArgs(t *testing.T) {
	unsetCallback(t)
	s := testSettings()
	s.ExtraArgs = []string{"-vv"}
	f := newFixture(t, s)

	if _, err := f.applier.Playbook(context.Background(), Request{Source: "site.yml"}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"ANSIBLE_STDOUT_CALLBACK=debug"}, f.playbookCall(t).Env); diff != "" {
		t.Errorf("env mismatch (-want +got):\n%s", diff)
	}
}

func unsetRolesPath(t *testing.T) string {
	t.Helper()
	t.Setenv(RolesPathEnv, "")
	os.Unsetenv(RolesPathEnv)
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestRole_ConfiguredRolesPath(t *testing.T) {
	unsetCallback(t)
	home := unsetRolesPath(t)
	f := newFixture(t, testSettings())
	f.applier.opts.Settings.RolesPath = f.rolesPath

	if _, err := f.applier.Role(context.Background(), Request{Source: "geerlingguy.docker"}); err != nil {
		t.Fatalf("Role failed: %v", err)
	}
	if n := len(f.fake.CallsTo("ansible-galaxy list --roles-path " + f.rolesPath)); n != 1 {
		t.Errorf("installed roles not listed from %s: %v", f.rolesPath, f.fake.Lines())
	}

	search := strings.Join([]string{
		f.rolesPath,
		filepath.Join(home, ".ansible", "roles"),
		"/usr/share/ansible/roles",
		"/etc/ansible/roles",
	}, string(os.PathListSeparator))
	want := []string{"ANSIBLE_STDOUT_CALLBACK=unixy", "ANSIBLE_ROLES_PATH=" + search}
	if diff := cmp.Diff(want, f.playbookCall(t).Env); diff != "" {
		t.Errorf("env mismatch (-want +got):\n%s", diff)
	}
}

func TestRole_ConfiguredRolesPathCached(t *testing.T) {
	unsetRolesPath(t)
	f := newFixture(t, testSettings())
	f.applier.opts.Settings.RolesPath = f.rolesPath
	f.fake.On("ansible-galaxy list --roles-path "+f.rolesPath, runnertest.Response{
		Stdout: "# " + f.rolesPath + "\n- geerlingguy.docker, 7.0.1\n",
	})

	if _, err := f.applier.Role(context.Background(), Request{Source: "geerlingguy.docker"}); err != nil {
		t.Fatalf("Role failed: %v", err)
	}
	if n := len(f.fake.CallsTo("ansible-galaxy install")); n != 0 {
		t.Errorf("cached role reinstalled: %v", f.fake.Lines())
	}
}

func TestRolesPath(t *testing.T) {
	home := unsetRolesPath(t)
	if got := RolesPath(""); got != "" {
		t.Errorf("empty install dir: got %q", got)
	}
	defaults := filepath.Join(home, ".ansible", "roles")
	want := strings.Join([]string{defaults, "/usr/share/ansible/roles", "/etc/ansible/roles"}, string(os.PathListSeparator))
	if got := RolesPath(defaults); got != want {
		t.Errorf("RolesPath(%q) = %q, want %q", defaults, got, want)
	}

	t.Setenv(RolesPathEnv, "/srv/roles")
	if got := RolesPath("/srv/roles"); got != "" {
		t.Errorf("preset env: got %q, want empty", got)
	}
}

func TestStdoutCallback(t *testing.T) {
	unsetCallback(t)
	if got := StdoutCallback("unixy", false); got != "unixy" {
		t.Errorf("unset env: got %q, want unixy", got)
	}
	if got := StdoutCallback("unixy", true); got != "debug" {
		t.Errorf("verbose: got %q, want debug", got)
	}

	t.Setenv(StdoutCallbackEnv, "yaml")
	if got := StdoutCallback("unixy", false); got != "" {
		t.Errorf("preset env: got %q, want empty", got)
	}
}

func TestMaterialize(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "playbooks")

	path, err := Materialize(dir, RolePlaybook)
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	want, _ := BundledPlaybook(RolePlaybook)
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("materialized content differs from bundled playbook")
	}
	if !bytes.Contains(got, []byte(VarRole)) {
		t.Errorf("role playbook should reference %s", VarRole)
	}

	if err := os.WriteFile(path, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Materialize(dir, RolePlaybook); err != nil {
		t.Fatal(err)
	}
	got, _ = os.ReadFile(path)
	if !bytes.Equal(got, want) {
		t.Error("stale playbook was not rewritten")
	}
}

func TestBundledPlaybook_Unknown(t *testing.T) {
	if _, err := BundledPlaybook("nope.yml"); err == nil {
		t.Fatal("expected error")
	}
}

func containsPair(argv []string, flag, value string) bool {
	for i := 0; i+1 < len(argv); i++ {
		if argv[i] == flag && argv[i+1] == value {
			return true
		}
	}
	return false
}
