package galaxy

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"
	"github.com/yourlabs/bigsudo/internal/runner"
)

var (
	listEntryPattern = regexp.MustCompile(`^- (?P<name>[^,]*), (?P<version>.*)$`)
	listPathPattern  = regexp.MustCompile(`^# (?P<path>.+)$`)
)

// Entry is one role reported by `ansible-galaxy list`.
type Entry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// Path is the roles directory the entry was listed under, when known.
	Path string `json:"path,omitempty"`
}

// Cache maps installed role names to versions.
type Cache struct {
	runner    runner.Runner
	bin       string
	rolesPath string

	loaded  bool
	entries []Entry
	roles   map[string]string
}

// NewCache returns a cache that loads itself with `<bin> list`. A non-empty
// rolesPath is passed with --roles-path so roles installed there are seen.
func NewCache(r runner.Runner, bin, rolesPath string) *Cache {
	return &Cache{runner: r, bin: bin, rolesPath: rolesPath, roles: make(map[string]string)}
}

func (c *Cache) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	cmd := runner.Command{Name: c.bin, Args: []string{"list"}}
	if c.rolesPath != "" {
		cmd.Args = append(cmd.Args, "--roles-path", c.rolesPath)
	}
	log.Debug().Str("cmd", cmd.String()).Msg("loading installed roles")
	out, err := c.runner.Output(ctx, cmd)
	if err != nil {
		return fmt.Errorf("listing installed roles: %w", err)
	}
	if !out.Success() {
		return fmt.Errorf("%s exited with code %d: %s", cmd, out.ExitCode, strings.TrimSpace(out.Stderr))
	}
	pending := c.entries
	c.entries = nil
	c.roles = make(map[string]string)
	for _, e := range ParseList(out.Stdout) {
		c.add(e)
	}
	// Roles added before the first load are usually listed too.
	for _, e := range pending {
		if _, ok := c.roles[e.Name]; !ok {
			c.add(e)
		}
	}
	c.loaded = true
	return nil
}

// add records e. The first entry for a name wins, matching the order
// Ansible searches its roles paths.
func (c *Cache) add(e Entry) {
	c.entries = append(c.entries, e)
	if _, ok := c.roles[e.Name]; !ok {
		c.roles[e.Name] = e.Version
	}
}

// Has reports whether name is installed.
func (c *Cache) Has(ctx context.Context, name string) (bool, error) {
	if err := c.load(ctx); err != nil {
		return false, err
	}
	_, ok := c.roles[name]
	return ok, nil
}

// Add records a role installed during this invocation.
func (c *Cache) Add(name, version string) {
	c.add(Entry{Name: name, Version: version, Path: c.rolesPath})
}

// Forget drops name from the cache.
func (c *Cache) Forget(name string) {
	delete(c.roles, name)
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.Name != name {
			kept = append(kept, e)
		}
	}
	c.entries = kept
}

// Entries returns every listed role sorted by name; duplicates of one name
// are ordered newest version first.
func (c *Cache) Entries(ctx context.Context) ([]Entry, error) {
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	out := append([]Entry(nil), c.entries...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return versionLess(out[j].Version, out[i].Version)
	})
	return out, nil
}

// versionLess orders semver-parseable versions before anything else.
func versionLess(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		return va.LessThan(vb)
	case errA == nil:
		return false
	case errB == nil:
		return true
	default:
		return a < b
	}
}

// ParseList extracts entries from `ansible-galaxy list` output. Lines
// that are not role entries are ignored; "# <dir>" headers set the Path of
// the entries that follow.
func ParseList(output string) []Entry {
	var entries []Entry
	dir := ""
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if m := listPathPattern.FindStringSubmatch(line); m != nil {
			dir = strings.TrimSpace(m[1])
			continue
		}
		m := listEntryPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entries = append(entries, Entry{Name: m[1], Version: m[2], Path: dir})
	}
	return entries
}
