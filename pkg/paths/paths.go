package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/vendorsync/pkg/errors"
)

const (
	// DirName is the directory name used under each XDG base directory.
	DirName = "vendorsync"

	// ConfigFileName is the user configuration file looked up in the config dir.
	ConfigFileName = "config.toml"

	// LogFileName is the log file written in the state dir.
	LogFileName = "vendorsync.log"
)

// BaseDir returns the default directory holding the upstream mirror.
func BaseDir() string {
	return filepath.Join(xdg.DataHome, DirName)
}

// ConfigFile returns the default user configuration file path.
func ConfigFile() string {
	return filepath.Join(xdg.ConfigHome, DirName, ConfigFileName)
}

// LogFile returns the log file path.
func LogFile() string {
	return filepath.Join(xdg.StateHome, DirName, LogFileName)
}

// Expand resolves a leading ~ and makes path absolute relative to the
// working directory.
func Expand(path string) (string, error) {
	if path == "" {
		return "", errors.New(errors.ErrInvalidInput, "empty path")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrFileAccess, "cannot determine home directory")
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve %s", path)
	}
	return abs, nil
}

// MirrorDir returns the mirror directory inside baseDir.
func MirrorDir(baseDir, mirrorName string) string {
	return filepath.Join(baseDir, mirrorName)
}
