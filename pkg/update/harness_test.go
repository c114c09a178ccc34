package update_test

import (
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/vendorsync/pkg/config"
	"github.com/arthur-debert/vendorsync/pkg/filesystem"
	"github.com/arthur-debert/vendorsync/pkg/gitutil"
	"github.com/arthur-debert/vendorsync/pkg/testutil"
	"github.com/arthur-debert/vendorsync/pkg/types"
	"github.com/arthur-debert/vendorsync/pkg/update"
	"github.com/arthur-debert/vendorsync/pkg/version"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	targetDir = "/work/node"
	baseDir   = "/home/op/.vendorsync"
	mirrorDir = baseDir + "/v8"
	vendored  = targetDir + "/deps/v8"
	versionH  = vendored + "/include/v8-version.h"

	nodeVersionH = targetDir + "/src/node_version.h"
)

type harness struct {
	cfg *config.Config
	mem afero.Fs
	fs  types.FS
	git *testutil.FakeGit
}

func loadConfig(t *testing.T, flags map[string]interface{}) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	all := map[string]interface{}{
		"base_dir":   baseDir,
		"target.dir": targetDir,
	}
	for k, v := range flags {
		all[k] = v
	}
	cfg, err := config.Load(config.Options{Flags: all})
	require.NoError(t, err)
	return cfg
}

// newHarness prepares a downstream checkout vendoring current, an existing
// mirror, and a fake git that reports staged changes on every commit.
func newHarness(t *testing.T, current version.Version, flags map[string]interface{}) *harness {
	t.Helper()
	mem := afero.NewMemMapFs()
	h := &harness{
		cfg: loadConfig(t, flags),
		mem: mem,
		fs:  filesystem.NewAferoFS(mem),
		git: testutil.NewFakeGit(),
	}

	testutil.WriteFile(t, h.fs, nodeVersionH, "#define NODE_MAJOR_VERSION 10\n#define NODE_MODULE_VERSION 63\n")
	testutil.WriteFile(t, h.fs, versionH, testutil.VersionHeader(current))
	require.NoError(t, h.fs.MkdirAll(mirrorDir, 0755))

	h.git.On("diff", "--cached", "--quiet").Fail("")
	return h
}

func (h *harness) updater() *update.Updater {
	return update.New(h.cfg, h.git, h.fs)
}

// commits returns the -m arguments of every commit run in the target.
func (h *harness) commits() [][]string {
	var out [][]string
	for _, cmd := range h.git.CallsTo("commit") {
		var msgs []string
		for i := 0; i+1 < len(cmd.Args); i++ {
			if cmd.Args[i] == "-m" {
				msgs = append(msgs, cmd.Args[i+1])
			}
		}
		out = append(out, msgs)
	}
	return out
}

func (h *harness) diffFiles(t *testing.T) []string {
	t.Helper()
	matches, err := afero.Glob(h.mem, filepath.Join(targetDir, "*.diff"))
	require.NoError(t, err)
	return matches
}

// writesVersion simulates a git command that leaves v in the version header.
func (h *harness) writesVersion(t *testing.T, v version.Version) testutil.Handler {
	return func(gitutil.Command) (gitutil.RunResult, error) {
		testutil.WriteFile(t, h.fs, versionH, testutil.VersionHeader(v))
		return gitutil.RunResult{}, nil
	}
}

func v(major, minor, build, patch int) version.Version {
	return version.Version{Major: major, Minor: minor, Build: build, Patch: patch}
}
