package manifest_test

import (
	"testing"

	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/manifest"
	"github.com/arthur-debert/vendorsync/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(entries []manifest.Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestDefaultTable(t *testing.T) {
	m := manifest.Default()
	require.Len(t, m.Entries, 4)
	assert.Equal(t, []string{"trace_event", "gtest", "jinja2", "markupsafe"}, names(m.Entries))

	gtest := m.Entries[1]
	assert.Equal(t, "v8/testing/gtest", gtest.Repo)
	assert.Equal(t, "testing/gtest", gtest.Path)
	assert.Equal(t, "/testing/gtest", gtest.Ignore.Match)
	assert.Contains(t, gtest.Ignore.Replace, "!/testing/gtest/include/gtest/gtest_prod.h")

	assert.Equal(t, "!/third_party/jinja2", m.Entries[2].Ignore.Append)
}

func TestApplicable(t *testing.T) {
	m := manifest.Default()

	tests := []struct {
		name string
		v    version.Version
		want []string
	}{
		{"before any", version.Version{Major: 5, Minor: 4}, nil},
		{"line 55", version.Version{Major: 5, Minor: 5, Build: 372, Patch: 40}, []string{"trace_event", "gtest"}},
		{"line 56", version.Version{Major: 5, Minor: 6}, []string{"trace_event", "gtest", "jinja2", "markupsafe"}},
		{"line 65", version.Version{Major: 6, Minor: 5, Build: 254, Patch: 28}, []string{"trace_event", "gtest", "jinja2", "markupsafe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(m.Applicable(tt.v)))
		})
	}
}

func TestApplicableIsMonotonic(t *testing.T) {
	m := manifest.Default()
	previous := 0
	for major := 4; major <= 8; major++ {
		for minor := 0; minor <= 9; minor++ {
			v := version.Version{Major: major, Minor: minor}
			got := m.Applicable(v)
			assert.GreaterOrEqual(t, len(got), previous, "at %s", v)
			for _, e := range got {
				assert.LessOrEqual(t, e.Since, v.LineNumber())
			}
			previous = len(got)
		}
	}
}

func TestIgnoreRuleApply(t *testing.T) {
	content := "/base\n/build\n/testing/gtest\n/third_party\n"

	assert.Equal(t, "/build\n/testing/gtest\n/third_party\n",
		manifest.IgnoreRule{Match: "/base\n"}.Apply(content))

	assert.Equal(t, content+"!/third_party/jinja2\n",
		manifest.IgnoreRule{Append: "!/third_party/jinja2"}.Apply(content))

	assert.Equal(t, "a x a", manifest.IgnoreRule{Match: "a", Replace: "a x"}.Apply("a a"))

	assert.True(t, manifest.IgnoreRule{}.IsZero())
	assert.Equal(t, content, manifest.IgnoreRule{}.Apply(content))
}

func TestLoadRejectsInvalidTables(t *testing.T) {
	tests := map[string]string{
		"missing path": `
[[dependency]]
name = "x"
repo = "v8/x"
`,
		"append and match": `
[[dependency]]
name = "x"
repo = "v8/x"
path = "x"
[dependency.gitignore]
append = "!/x"
match = "/x"
`,
		"unknown field": `
[[dependency]]
name = "x"
repo = "v8/x"
path = "x"
branch = "main"
`,
	}
	for name, table := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := manifest.Load([]byte(table))
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))
		})
	}
}
