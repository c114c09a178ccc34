package paths_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLocations(t *testing.T) {
	assert.Equal(t, paths.DirName, filepath.Base(paths.BaseDir()))
	assert.Equal(t, filepath.Join(paths.DirName, paths.ConfigFileName), lastTwo(paths.ConfigFile()))
	assert.Equal(t, filepath.Join(paths.DirName, paths.LogFileName), lastTwo(paths.LogFile()))
}

func lastTwo(p string) string {
	return filepath.Join(filepath.Base(filepath.Dir(p)), filepath.Base(p))
}

func TestExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"home", "~", home},
		{"under home", "~/.update-v8", filepath.Join(home, ".update-v8")},
		{"absolute", "/work/node", "/work/node"},
		{"relative", "node", filepath.Join(cwd, "node")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := paths.Expand(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = paths.Expand("")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestMirrorDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/base", "v8"), paths.MirrorDir("/base", "v8"))
}
