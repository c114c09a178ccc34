package vendorsync

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/gitutil"
	"github.com/arthur-debert/vendorsync/pkg/testutil"
	"github.com/arthur-debert/vendorsync/pkg/types"
	"github.com/arthur-debert/vendorsync/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	targetDir = "/work/node"
	baseDir   = "/home/op/.vendorsync"
	mirrorDir = baseDir + "/v8"
	versionH  = targetDir + "/deps/v8/include/v8-version.h"
)

type fixture struct {
	fs  types.FS
	git *testutil.FakeGit
	env environment
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)
}

func newFixture(t *testing.T, current version.Version) *fixture {
	t.Helper()
	isolate(t)

	f := &fixture{
		fs:  testutil.NewMemFS(),
		git: testutil.NewFakeGit(),
	}
	f.env = environment{
		newRunner: func(bool) (gitutil.Runner, error) { return f.git, nil },
		fs:        f.fs,
	}

	testutil.WriteFile(t, f.fs, filepath.Join(targetDir, "src/node_version.h"), "#define NODE_MAJOR_VERSION 10\n")
	testutil.WriteFile(t, f.fs, versionH, testutil.VersionHeader(current))
	require.NoError(t, f.fs.MkdirAll(mirrorDir, 0755))
	f.git.On("diff", "--cached", "--quiet").Fail("")
	return f
}

func (f *fixture) run(args ...string) (string, *app, error) {
	a := newApp(f.env)
	cmd := a.rootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--target-dir", targetDir, "--base-dir", baseDir, "--format", "text"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), a, err
}

func TestMinorCommand(t *testing.T) {
	f := newFixture(t, version.Version{Major: 6, Minor: 5, Build: 254, Patch: 28})
	f.git.On("tag", "-l", "6.5.254.*").In(mirrorDir).Return(testutil.TagList("6.5.254.28", "6.5.254.31"))
	f.git.On("diff", "6.5.254.28", "6.5.254.31").In(mirrorDir).Return("diff --git a/x b/x\n")
	f.git.On("apply").In(targetDir).Do(func(gitutil.Command) (gitutil.RunResult, error) {
		testutil.WriteFile(t, f.fs, versionH, testutil.VersionHeader(version.Version{Major: 6, Minor: 5, Build: 254, Patch: 31}))
		return gitutil.RunResult{}, nil
	})

	out, _, err := f.run("minor")
	require.NoError(t, err)

	assert.Contains(t, out, "❯ Update local V8 mirror\n")
	assert.Contains(t, out, "  ✔ Fetch V8\n")
	assert.Contains(t, out, "  ↓ Clone V8 [skipped]")
	assert.Contains(t, out, "✔ Do minor update to 6.5.254.31\n")
	assert.Contains(t, out, "Updated V8 from 6.5.254.28 to 6.5.254.31\n")
	assert.Contains(t, out, "Created 1 commit(s):\n  deps: update V8 to 6.5.254.31\n")
	assert.True(t, f.git.Ran("commit"))
}

func TestMinorCommandUpToDate(t *testing.T) {
	f := newFixture(t, version.Version{Major: 6, Minor: 5, Build: 254, Patch: 31})
	f.git.On("tag", "-l", "6.5.254.*").Return(testutil.TagList("6.5.254.28", "6.5.254.31"))

	out, _, err := f.run("minor")
	require.NoError(t, err)
	assert.Contains(t, out, "V8 is already at 6.5.254.31\n")
	assert.NotContains(t, out, "Created")
	assert.False(t, f.git.Ran("commit"))
}

func TestBackportCommandRejectsShortSHA(t *testing.T) {
	f := newFixture(t, version.Version{Major: 6, Minor: 5, Build: 254, Patch: 28})

	out, a, err := f.run("backport", "--sha", "abc123")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPrecondition))
	assert.Empty(t, f.git.Calls())
	assert.Contains(t, out, "✖ Validate commit\n")

	var stderr bytes.Buffer
	assert.Equal(t,
		"✖ Validate commit: --sha option is required and must be 40 characters long",
		a.renderError(err, &stderr))
}

func TestBackportCommandNoBump(t *testing.T) {
	sha := strings.Repeat("ab", 20)
	f := newFixture(t, version.Version{Major: 6, Minor: 5, Build: 254, Patch: 28})
	f.git.On("format-patch").In(mirrorDir).Return("From " + sha + "\n")
	f.git.On("log").In(mirrorDir).Return("Fix the thing\n")

	out, _, err := f.run("backport", "--sha", sha, "--no-bump")
	require.NoError(t, err)
	assert.Contains(t, out, "Backported abababa to V8 6.5.254.28\n")
	assert.Len(t, f.git.CallsTo("commit"), 1)
}

func TestConfigCommand(t *testing.T) {
	f := newFixture(t, version.Version{})

	t.Run("toml", func(t *testing.T) {
		out, _, err := f.run("config")
		require.NoError(t, err)
		assert.Regexp(t, `mirror_name = ['"]v8['"]`, out)
		assert.Regexp(t, `base_dir = ['"]`+baseDir+`['"]`, out)
	})

	t.Run("yaml", func(t *testing.T) {
		out, _, err := f.run("config", "--yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "mirror_name: v8\n")
		assert.Contains(t, out, "dir: "+targetDir+"\n")
	})

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv("VENDORSYNC_TARGET__DIR", "/elsewhere")
		out, _, err := f.run("config", "--paths")
		require.NoError(t, err)
		assert.Contains(t, out, "mirror:      "+mirrorDir+"\n")
		assert.Contains(t, out, "vendored:    "+targetDir+"/deps/v8\n")
	})
}

func TestVerboseFlagEnablesConfigVerbose(t *testing.T) {
	f := newFixture(t, version.Version{})
	_, a, err := f.run("-v", "config")
	require.NoError(t, err)
	require.NotNil(t, a.cfg)
	assert.True(t, a.cfg.Verbose)
	assert.True(t, a.verbose())
}

func TestVersionCommand(t *testing.T) {
	f := newFixture(t, version.Version{})
	out, _, err := f.run("version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "vendorsync dev (commit unknown"), out)
}

func TestCompletionCommand(t *testing.T) {
	f := newFixture(t, version.Version{})

	out, _, err := f.run("completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "vendorsync")

	_, _, err = f.run("completion", "tcsh")
	assert.Error(t, err)
}

func TestRootCommandErrors(t *testing.T) {
	f := newFixture(t, version.Version{})

	t.Run("no command", func(t *testing.T) {
		_, _, err := f.run()
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := f.run("--format", "json", "version")
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	})

	t.Run("missing config file", func(t *testing.T) {
		_, _, err := f.run("--config", "/nope/config.toml", "config")
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
	})
}
