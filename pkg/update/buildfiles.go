package update

import (
	"context"
	"path/filepath"

	"github.com/arthur-debert/vendorsync/pkg/config"
	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/pipeline"
	"github.com/arthur-debert/vendorsync/pkg/version"
)

// buildFilePolicy decides who owns the platform build files. Below the
// threshold release line the upstream tree ships them; from the threshold on
// the downstream project keeps its own copy inside the vendored tree.
type buildFilePolicy struct {
	config.BuildFiles
}

func (p buildFilePolicy) enabled() bool {
	return p.Threshold > 0 && p.Dir != ""
}

func (p buildFilePolicy) upstreamShips(v version.Version) bool {
	return v.LineNumber() < p.Threshold
}

func (p buildFilePolicy) downstreamOwns(v version.Version) bool {
	return v.LineNumber() >= p.Threshold
}

// relocate reports whether the downstream build files must survive the
// wholesale replacement by being moved out and back in.
func (p buildFilePolicy) relocate(current, next version.Version) bool {
	return p.enabled() && !p.upstreamShips(next) && p.downstreamOwns(current)
}

// adopt reports whether the downstream project takes ownership of the build
// files with this update, seeding them from the template directory.
func (p buildFilePolicy) adopt(current, next version.Version) bool {
	return p.enabled() && p.TemplateDir != "" && !p.upstreamShips(next) && !p.downstreamOwns(current)
}

func (u *Updater) policy() buildFilePolicy {
	return buildFilePolicy{u.cfg.BuildFiles}
}

func (u *Updater) buildFilesDir() string {
	return filepath.Join(u.cfg.VendoredDir(), u.cfg.BuildFiles.Dir)
}

func (u *Updater) buildFilesStash() string {
	return filepath.Join(u.cfg.Target.Dir, u.cfg.BuildFiles.StashDir)
}

func (u *Updater) moveBuildFilesOut() step {
	return step{
		Title: "Move " + u.cfg.BuildFiles.Dir + " out",
		Skip:  func(c *Context) bool { return !u.policy().relocate(c.Current, c.NewVersion) },
		Action: func(context.Context, *Context, *pipeline.Task) error {
			return u.move(u.buildFilesDir(), u.buildFilesStash())
		},
	}
}

func (u *Updater) moveBuildFilesIn() step {
	return step{
		Title: "Move " + u.cfg.BuildFiles.Dir + " in",
		Skip:  func(c *Context) bool { return !u.policy().relocate(c.Current, c.NewVersion) },
		Action: func(context.Context, *Context, *pipeline.Task) error {
			dst := u.buildFilesDir()
			if err := u.fs.RemoveAll(dst); err != nil {
				return errors.Wrapf(err, errors.ErrFileWrite, "cannot remove %s", dst)
			}
			return u.move(u.buildFilesStash(), dst)
		},
	}
}

func (u *Updater) adoptBuildFiles() step {
	return step{
		Title: "Adopt " + u.cfg.BuildFiles.Dir,
		Skip:  func(c *Context) bool { return !u.policy().adopt(c.Current, c.NewVersion) },
		Action: func(context.Context, *Context, *pipeline.Task) error {
			src, dst := u.cfg.BuildFiles.TemplateDir, u.buildFilesDir()
			if err := u.fs.RemoveAll(dst); err != nil {
				return errors.Wrapf(err, errors.ErrFileWrite, "cannot remove %s", dst)
			}
			if err := u.fs.CopyDir(src, dst); err != nil {
				return errors.Wrapf(err, errors.ErrFileWrite, "cannot copy %s to %s", src, dst).
					WithDetail(errors.DetailPath, src)
			}
			u.logger.Info().Str("from", src).Str("to", dst).Msg("Build files adopted")
			return nil
		},
	}
}

func (u *Updater) move(src, dst string) error {
	if err := u.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", filepath.Dir(dst))
	}
	if err := u.fs.Rename(src, dst); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot move %s to %s", src, dst).
			WithDetail(errors.DetailPath, src)
	}
	u.logger.Debug().Str("from", src).Str("to", dst).Msg("Moved")
	return nil
}
