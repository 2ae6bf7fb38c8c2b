package source

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind identifies how a reference is located or fetched.
type Kind int

const (
	// KindGalaxy is a bare registry name such as "geerlingguy.docker".
	KindGalaxy Kind = iota
	// KindLocal is an existing filesystem path.
	KindLocal
	// KindURL is an http(s) URL, with an optional "scheme+" prefix and ",ref" suffix.
	KindURL
	// KindGit is a scheme-less git spec such as "git@host.tld/owner/repo".
	KindGit
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindURL:
		return "url"
	case KindGit:
		return "git"
	default:
		return "galaxy"
	}
}

// Defaults applied to git specs that omit them.
const (
	DefaultGitUser = "git"
	DefaultGitHost = "github.com"
)

// archiveSuffixes are stripped from the last path segment to form a name.
var archiveSuffixes = []string{".git", ".tar.gz", ".tgz", ".zip"}

var (
	urlPattern = regexp.MustCompile(`^((?P<scheme>[^+]*)\+)?(?P<url>https?([^,]*))(,(?P<ref>.*))?$`)
	gitPattern = regexp.MustCompile(`^((?P<user>[^@]*)@)?(?P<host>([a-z0-9_-]+\.[^/]*)+)?/?(?P<path>[^/]+/.*)`)
	httpPrefix = regexp.MustCompile(`^https?://`)
)

// Source is a classified reference.
type Source struct {
	Raw  string
	Kind Kind
	// Name is the short display name: the role name Galaxy installs under.
	Name string
	// Path is the absolute path of a KindLocal source.
	Path string
	// URL holds the http(s) part of a KindURL source.
	URL    string
	Scheme string
	Ref    string
	// Git is set for KindGit sources.
	Git *GitSpec
}

// GitSpec is a parsed "user@host/path" reference.
type GitSpec struct {
	User string
	Host string
	Path string
}

// SSHURL returns the Galaxy install source for an SSH clone.
func (g GitSpec) SSHURL() string {
	return "git+ssh://" + g.User + "@" + g.Host + "/" + g.Path
}

// HTTPSURL returns the Galaxy install source for an anonymous HTTPS clone.
func (g GitSpec) HTTPSURL() string {
	return "git+https://" + g.Host + "/" + g.Path
}

// Resolve classifies ref.
func Resolve(ref string) Source {
	src := Source{Raw: ref, Name: DisplayName(ref)}

	if _, err := os.Stat(ref); err == nil {
		src.Kind = KindLocal
		if abs, err := filepath.Abs(ref); err == nil {
			src.Path = abs
		} else {
			src.Path = ref
		}
		src.Name = filepath.Base(src.Path)
		return src
	}

	if u, ok := ParseURL(ref); ok {
		src.Kind = KindURL
		src.URL = u.URL
		src.Scheme = u.Scheme
		src.Ref = u.Ref
		return src
	}

	if strings.Contains(ref, "/") {
		g := ParseGit(ref)
		src.Kind = KindGit
		src.Git = &g
		return src
	}

	src.Kind = KindGalaxy
	return src
}

// InstallSource returns what to hand to `ansible-galaxy install` for a URL
// source: git URLs gain a "git+" scheme when they have none, everything
// else is passed through unchanged.
func (s Source) InstallSource() string {
	if s.Kind != KindURL {
		return s.Raw
	}
	if s.Scheme == "" && strings.HasSuffix(s.URL, ".git") {
		out := "git+" + s.URL
		if s.Ref != "" {
			out += "," + s.Ref
		}
		return out
	}
	return s.Raw
}

// URLParts is a parsed "scheme+url,ref" reference.
type URLParts struct {
	Scheme string
	URL    string
	Ref    string
}

// ParseURL parses an http(s) reference with optional "scheme+" prefix and
// ",ref" suffix, e.g. "git+https://host/o/r.git,v1".
func ParseURL(ref string) (URLParts, bool) {
	m := urlPattern.FindStringSubmatch(ref)
	if m == nil {
		return URLParts{}, false
	}
	return URLParts{
		Scheme: m[urlPattern.SubexpIndex("scheme")],
		URL:    m[urlPattern.SubexpIndex("url")],
		Ref:    m[urlPattern.SubexpIndex("ref")],
	}, true
}

// ParseGit parses a scheme-less git spec. Missing user and host fall back
// to DefaultGitUser and DefaultGitHost; a reference the pattern rejects is
// treated as a path on the default host.
func ParseGit(ref string) GitSpec {
	g := GitSpec{User: DefaultGitUser, Host: DefaultGitHost}
	m := gitPattern.FindStringSubmatch(ref)
	if m == nil {
		g.Path = strings.Trim(ref, "/")
		return g
	}
	if user := m[gitPattern.SubexpIndex("user")]; user != "" {
		g.User = user
	}
	if host := m[gitPattern.SubexpIndex("host")]; host != "" {
		g.Host = host
	}
	g.Path = strings.TrimRight(m[gitPattern.SubexpIndex("path")], "/")
	return g
}

// DisplayName computes the short name of a reference: the last non-empty
// path segment, without a ",ref" suffix or a trailing archive suffix.
func DisplayName(ref string) string {
	target := ref
	if u, ok := ParseURL(ref); ok {
		target = u.URL
	}

	name := lastSegment(target)
	if i := strings.Index(name, ","); i >= 0 {
		name = name[:i]
	}
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	return name
}

// IsHTTP reports whether ref is a plain http(s) URL.
func IsHTTP(ref string) bool {
	return httpPrefix.MatchString(ref)
}

// IsPlaybook reports whether ref names a YAML playbook file.
func IsPlaybook(ref string) bool {
	return strings.HasSuffix(ref, ".yml") || strings.HasSuffix(ref, ".yaml")
}

func lastSegment(s string) string {
	parts := strings.Split(s, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return s
}
