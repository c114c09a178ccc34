package manifest

import (
	"bytes"
	_ "embed"
	"strings"

	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/version"
	toml "github.com/pelletier/go-toml/v2"
)

//go:embed embedded/dependencies.toml
var dependencyTable []byte

// IgnoreRule patches the vendored tree's ignore file. Either Append is set,
// in which case the literal is appended as a new line, or Match is replaced
// by Replace (first occurrence only).
type IgnoreRule struct {
	Append  string `toml:"append"`
	Match   string `toml:"match"`
	Replace string `toml:"replace"`
}

// IsZero reports whether the rule does nothing.
func (r IgnoreRule) IsZero() bool {
	return r.Append == "" && r.Match == ""
}

// Apply returns content with the rule applied.
func (r IgnoreRule) Apply(content string) string {
	switch {
	case r.Append != "":
		return content + r.Append + "\n"
	case r.Match != "":
		return strings.Replace(content, r.Match, r.Replace, 1)
	default:
		return content
	}
}

// Entry is one nested dependency.
type Entry struct {
	Name   string     `toml:"name"`
	Repo   string     `toml:"repo"`
	Path   string     `toml:"path"`
	Since  int        `toml:"since"`
	Ignore IgnoreRule `toml:"gitignore"`
}

// Manifest is the ordered dependency table.
type Manifest struct {
	Entries []Entry `toml:"dependency"`
}

// Load parses a dependency table.
func Load(data []byte) (*Manifest, error) {
	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "invalid dependency table")
	}
	for i, e := range m.Entries {
		if e.Name == "" || e.Repo == "" || e.Path == "" {
			return nil, errors.Newf(errors.ErrConfigParse, "dependency #%d needs name, repo and path", i+1)
		}
		if e.Ignore.Append != "" && e.Ignore.Match != "" {
			return nil, errors.Newf(errors.ErrConfigParse, "dependency %s: gitignore takes append or match, not both", e.Name)
		}
	}
	return &m, nil
}

// Default returns the dependency table compiled into vendorsync.
func Default() *Manifest {
	m, err := Load(dependencyTable)
	if err != nil {
		panic(err)
	}
	return m
}

// Applicable returns, in declaration order, the entries introduced at or
// before the release line of v.
func (m *Manifest) Applicable(v version.Version) []Entry {
	line := v.LineNumber()
	var out []Entry
	for _, e := range m.Entries {
		if e.Since <= line {
			out = append(out, e)
		}
	}
	return out
}
