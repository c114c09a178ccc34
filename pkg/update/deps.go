package update

import (
	"context"
	"os"
	"path/filepath"

	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/gitutil"
	"github.com/arthur-debert/vendorsync/pkg/manifest"
	"github.com/arthur-debert/vendorsync/pkg/pipeline"
)

func (u *Updater) updateDependencies() step {
	return step{
		Title: "Update " + u.name() + " DEPS",
		Skip:  func(c *Context) bool { return c.Skipped },
		Action: func(ctx context.Context, c *Context, task *pipeline.Task) error {
			entries := u.deps.Applicable(c.NewVersion)
			if len(entries) == 0 {
				task.Skip("no nested dependencies for " + c.NewVersion.Line())
				return nil
			}

			depsPath := filepath.Join(u.cfg.VendoredDir(), u.cfg.Manifest.File)
			data, err := u.fs.ReadFile(depsPath)
			if err != nil {
				return errors.Wrapf(err, errors.ErrManifestParse, "cannot read %s", depsPath).
					WithDetail(errors.DetailPath, depsPath)
			}
			deps, err := manifest.ParseDeps(string(data), u.cfg.Manifest.DefaultHost)
			if err != nil {
				return err
			}

			for _, entry := range entries {
				if err := u.syncDependency(ctx, c, deps, entry); err != nil {
					return errors.Wrapf(err, errors.GetErrorCode(err), "dependency %s", entry.Name).
						WithDetails(errors.GetErrorDetails(err))
				}
			}
			return nil
		},
	}
}

func (u *Updater) syncDependency(ctx context.Context, c *Context, deps *manifest.DepsFile, entry manifest.Entry) error {
	if err := u.patchIgnoreFile(entry.Ignore); err != nil {
		return err
	}

	pin, err := deps.Resolve(entry.Repo)
	if err != nil {
		return err
	}

	dir := filepath.Join(u.cfg.VendoredDir(), entry.Path)
	if err := u.fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", dir).
			WithDetail(errors.DetailPath, dir)
	}
	repo := gitutil.In(u.git, dir)
	for _, args := range [][]string{
		{"init"},
		{"remote", "add", "origin", pin.Repo},
		{"fetch", "origin", pin.Commit},
		{"reset", "--hard", "FETCH_HEAD"},
	} {
		if _, err := repo.Run(ctx, args...); err != nil {
			return err
		}
	}
	if err := u.removeGitDir(dir); err != nil {
		return err
	}
	u.logger.Info().Str("dependency", entry.Name).Str("commit", pin.Commit).Msg("Dependency synced")

	data := u.messageData(c)
	data.Dependency = entry.Name
	data.Commit = pin.Commit
	title, err := renderMessage("commit.dependency", u.cfg.Commit.Dependency, data)
	if err != nil {
		return err
	}
	return u.commit(ctx, c, nil, []string{u.cfg.Target.VendoredPath}, title)
}

// patchIgnoreFile applies rule to the vendored tree's ignore file. A missing
// file is created for append rules.
func (u *Updater) patchIgnoreFile(rule manifest.IgnoreRule) error {
	if rule.IsZero() {
		return nil
	}
	path := filepath.Join(u.cfg.VendoredDir(), u.cfg.Manifest.IgnoreFile)

	data, err := u.fs.ReadFile(path)
	if err != nil && !(os.IsNotExist(err) && rule.Append != "") {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", path).
			WithDetail(errors.DetailPath, path)
	}
	if err := u.fs.WriteFile(path, []byte(rule.Apply(string(data))), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", path).
			WithDetail(errors.DetailPath, path)
	}
	return nil
}
