package update

import (
	"testing"

	"github.com/arthur-debert/vendorsync/pkg/config"
	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLkgrBranches(t *testing.T) {
	out := `  origin/lkgr
  origin/6.6-lkgr
  origin/HEAD -> origin/master
  origin/6.10-lkgr
  origin/6.5-lkgr
  origin/lkgr-panic
  origin/foo-lkgr
`
	branches := parseLkgrBranches(out, "origin", "-lkgr")
	var names []string
	for _, b := range branches {
		names = append(names, b.name)
	}
	assert.Equal(t, []string{"6.5-lkgr", "6.6-lkgr", "6.10-lkgr", "lkgr"}, names)
}

func TestSelectLkgrBranch(t *testing.T) {
	all := parseLkgrBranches("origin/6.4-lkgr\norigin/6.5-lkgr\norigin/6.6-lkgr\norigin/lkgr\n", "origin", "-lkgr")

	tests := []struct {
		name     string
		branches []lkgrBranch
		current  version.Version
		want     string
		warn     bool
		wantErr  bool
	}{
		{"next-to-last beyond current line", all, version.Version{Major: 6, Minor: 5, Build: 254, Patch: 28}, "6.6-lkgr", false, false},
		{"older line skips ahead", all, version.Version{Major: 6, Minor: 3}, "6.6-lkgr", false, false},
		{"only the moving tip left", all, version.Version{Major: 6, Minor: 6}, "lkgr", true, false},
		{"single numbered line left", all[:3], version.Version{Major: 6, Minor: 5}, "6.6-lkgr", false, false},
		{"nothing beyond", all[:3], version.Version{Major: 6, Minor: 6}, "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warn, err := selectLkgrBranch(tt.branches, tt.current)
			if tt.wantErr {
				assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.warn, warn)
		})
	}
}

func TestBuildFilePolicy(t *testing.T) {
	p := buildFilePolicy{config.BuildFiles{Dir: "gypfiles", Threshold: 66}}
	line := func(major, minor int) version.Version { return version.Version{Major: major, Minor: minor} }

	tests := []struct {
		name     string
		current  version.Version
		next     version.Version
		template string
		relocate bool
		adopt    bool
	}{
		{"both below threshold", line(6, 4), line(6, 5), "", false, false},
		{"ownership moves downstream", line(6, 5), line(6, 6), "", false, false},
		{"ownership moves downstream with template", line(6, 5), line(6, 6), "/tpl", false, true},
		{"downstream keeps ownership", line(6, 6), line(6, 7), "/tpl", true, false},
		{"new major", line(6, 9), line(7, 0), "", true, false},
		{"downgrade to upstream-owned", line(6, 6), line(6, 5), "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := p
			p.TemplateDir = tt.template
			assert.Equal(t, tt.relocate, p.relocate(tt.current, tt.next))
			assert.Equal(t, tt.adopt, p.adopt(tt.current, tt.next))
		})
	}

	disabled := buildFilePolicy{config.BuildFiles{Dir: "gypfiles"}}
	assert.False(t, disabled.relocate(line(6, 6), line(6, 7)))
}

func TestRenderMessage(t *testing.T) {
	msg, err := renderMessage("commit.update", "deps: update {{.Name}} to {{.Version}}", messageData{Name: "V8", Version: "6.5.254.31"})
	require.NoError(t, err)
	assert.Equal(t, "deps: update V8 to 6.5.254.31", msg)

	_, err = renderMessage("commit.update", "{{.Nope}}", messageData{})
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))

	_, err = renderMessage("commit.update", "{{.Name", messageData{})
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))
}

func TestBackportBody(t *testing.T) {
	body := backportBody("Fix\n\nDetails\n", "https://github.com/v8/v8/", "abc")
	assert.Equal(t, "Original commit message:\n\n    Fix\n    \n    Details\n\nRefs: https://github.com/v8/v8/commit/abc", body)
}
