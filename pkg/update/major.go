package update

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/gitutil"
	"github.com/arthur-debert/vendorsync/pkg/pipeline"
	"github.com/arthur-debert/vendorsync/pkg/version"
)

// MajorPipeline replaces the vendored tree with an upstream release branch
// and resynchronizes the nested dependencies.
func (u *Updater) MajorPipeline() *pipeline.Pipeline[Context] {
	return pipeline.New("Major "+u.name()+" update",
		u.mirrorSync(),
		pipeline.Group("Major "+u.name()+" update",
			u.checkTarget(),
			u.currentVersion(),
			u.resolveBranch(),
			u.targetVersion(),
			u.checkoutBranch(),
			u.moveBuildFilesOut(),
			u.removeVendored(),
			u.cloneVendored(),
			u.removeVendoredGit(),
			u.moveBuildFilesIn(),
			u.adoptBuildFiles(),
		),
		u.commitUpdate(nil),
		u.updateDependencies(),
		u.applyFloatingPatches(),
		u.bumpEmbedderVersion(),
	)
}

// Major runs the major workflow. An empty branch resolves the next
// last-known-good branch.
func (u *Updater) Major(ctx context.Context, branch string) (*Context, *pipeline.Report, error) {
	c := u.newContext()
	c.Branch = branch
	report, err := u.run(ctx, u.MajorPipeline(), c)
	return c, report, err
}

func (u *Updater) resolveBranch() step {
	return step{
		Title: "Resolve target branch",
		Action: func(ctx context.Context, c *Context, task *pipeline.Task) error {
			if c.Branch == "" {
				remote, suffix := u.cfg.Upstream.Remote, u.cfg.Upstream.LkgrSuffix
				pattern := remote + "/*" + trimDash(suffix)
				out, err := u.upstream().Output(ctx, "branch", "-r", "--list", pattern)
				if err != nil {
					return err
				}
				name, warn, err := selectLkgrBranch(parseLkgrBranches(out, remote, suffix), c.Current)
				if err != nil {
					return err
				}
				if warn {
					u.logger.Warn().Str("branch", name).Msg("Only the moving last-known-good branch is available, using it")
				}
				c.Branch = name
			}

			remoteRef := "refs/remotes/" + u.cfg.Upstream.Remote + "/" + c.Branch
			switch {
			case u.upstream().Exists(ctx, remoteRef):
			case u.upstream().Exists(ctx, "refs/tags/"+c.Branch):
				c.BranchIsTag = true
			default:
				return errors.Newf(errors.ErrNotFound, "%s is neither a remote branch nor a tag", c.Branch)
			}
			task.SetTitle("Resolve target branch: " + c.Branch)
			return nil
		},
	}
}

func (u *Updater) branchRef(c *Context) string {
	if c.BranchIsTag {
		return "refs/tags/" + c.Branch
	}
	return u.cfg.Upstream.Remote + "/" + c.Branch
}

func (u *Updater) targetVersion() step {
	return step{
		Title: "Get target " + u.name() + " version",
		Action: func(ctx context.Context, c *Context, task *pipeline.Task) error {
			object := u.branchRef(c) + ":" + filepath.ToSlash(u.cfg.Version.File)
			rr, err := u.upstream().Run(ctx, "show", object)
			if err != nil {
				return err
			}
			v, err := version.Parse(rr.Stdout, u.cfg.Markers())
			if err != nil {
				return errors.Wrapf(err, errors.ErrVersionNotFound, "could not find version at %s", object)
			}
			if version.Compare(v, c.Current) == 0 {
				return errors.Newf(errors.ErrPrecondition, "%s is already at %s, nothing to update", c.Branch, v)
			}
			c.NewVersion = v
			task.SetTitle("Get target " + u.name() + " version: " + v.String())
			return nil
		},
	}
}

func (u *Updater) checkoutBranch() step {
	return step{
		Title: "Checkout " + u.name() + " branch",
		Action: func(ctx context.Context, c *Context, task *pipeline.Task) error {
			if c.BranchIsTag {
				task.Skip("cloning tag " + c.Branch)
				return nil
			}
			repo := u.upstream()
			if _, err := repo.Run(ctx, "checkout", "--detach"); err != nil {
				return err
			}
			if _, err := repo.Run(ctx, "branch", "-D", c.Branch); err != nil {
				u.logger.Debug().Str("branch", c.Branch).Msg("No local branch to delete")
			}
			_, err := repo.Run(ctx, "branch", c.Branch, u.branchRef(c))
			return err
		},
	}
}

func (u *Updater) removeVendored() step {
	return step{
		Title: "Remove " + u.cfg.Target.VendoredPath,
		Action: func(context.Context, *Context, *pipeline.Task) error {
			dir := u.cfg.VendoredDir()
			if err := u.fs.RemoveAll(dir); err != nil {
				return errors.Wrapf(err, errors.ErrFileWrite, "cannot remove %s", dir).
					WithDetail(errors.DetailPath, dir)
			}
			return nil
		},
	}
}

func (u *Updater) cloneVendored() step {
	return step{
		Title: "Clone branch to " + u.cfg.Target.VendoredPath,
		Action: func(ctx context.Context, c *Context, _ *pipeline.Task) error {
			_, err := u.target().Run(ctx, "clone", "-b", c.Branch, c.MirrorDir, u.cfg.Target.VendoredPath)
			return err
		},
	}
}

func (u *Updater) removeVendoredGit() step {
	return step{
		Title: "Remove " + filepath.Join(u.cfg.Target.VendoredPath, ".git"),
		Action: func(context.Context, *Context, *pipeline.Task) error {
			return u.removeGitDir(u.cfg.VendoredDir())
		},
	}
}

func (u *Updater) removeGitDir(dir string) error {
	gitDir := filepath.Join(dir, ".git")
	if err := u.fs.RemoveAll(gitDir); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot remove %s", gitDir).
			WithDetail(errors.DetailPath, gitDir)
	}
	return nil
}

func (u *Updater) applyFloatingPatches() step {
	return step{
		Title: "Apply floating patches",
		Skip:  func(c *Context) bool { return c.Skipped || len(u.cfg.Major.FloatingPatches) == 0 },
		Action: func(ctx context.Context, c *Context, _ *pipeline.Task) error {
			for _, sha := range u.cfg.Major.FloatingPatches {
				if err := u.cherryPick(ctx, c, sha); err != nil {
					return err
				}
				c.Commits = append(c.Commits, "cherry-pick "+sha)
				u.logger.Info().Str("sha", sha).Msg("Floating patch applied")
			}
			return nil
		},
	}
}

// cherryPick applies sha on the target. A conflicting pick is aborted and the
// patch it carried is written to <target>/<sha>.diff.
func (u *Updater) cherryPick(ctx context.Context, c *Context, sha string) error {
	repo := u.target()
	_, pickErr := repo.Run(ctx, "cherry-pick", sha)
	if pickErr == nil {
		return nil
	}
	if _, err := repo.Run(ctx, "cherry-pick", "--abort"); err != nil {
		u.logger.Debug().Str("sha", sha).Msg("No cherry-pick to abort")
	}
	patch, err := repo.Output(ctx, "format-patch", "-1", "--stdout", sha)
	if err != nil {
		return errors.Wrapf(pickErr, errors.ErrCommand, "floating patch %s did not apply", sha).
			WithDetail(errors.DetailStderr, gitutil.Stderr(pickErr))
	}
	return u.storeConflict(c, patch, sha, pickErr)
}

// bumpEmbedderVersion moves the downstream ABI version to the new upstream
// line, offset as configured.
func (u *Updater) bumpEmbedderVersion() step {
	cfg := u.cfg.Embedder
	return step{
		Title: "Bump " + cfg.Marker,
		Skip:  func(c *Context) bool { return c.Skipped || cfg.File == "" },
		Action: func(ctx context.Context, c *Context, task *pipeline.Task) error {
			path := filepath.Join(c.TargetDir, cfg.File)
			data, err := u.fs.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", path).
					WithDetail(errors.DetailPath, path)
			}

			pattern := regexp.MustCompile(`(` + regexp.QuoteMeta(cfg.Marker) + `\s+)(\d+)`)
			m := pattern.FindSubmatchIndex(data)
			if m == nil {
				return errors.Newf(errors.ErrVersionNotFound, "%s not found in %s", cfg.Marker, path).
					WithDetail(errors.DetailPath, path)
			}
			current, _ := strconv.Atoi(string(data[m[4]:m[5]]))
			next := c.NewVersion.LineNumber() + cfg.Offset
			if next == current {
				task.Skip("version is the same")
				return nil
			}

			updated := append([]byte{}, data[:m[4]]...)
			updated = append(updated, strconv.Itoa(next)...)
			updated = append(updated, data[m[5]:]...)
			if err := u.fs.WriteFile(path, updated, 0644); err != nil {
				return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", path).
					WithDetail(errors.DetailPath, path)
			}
			u.logger.Info().Int("from", current).Int("to", next).Str("file", cfg.File).Msg("Embedder version bumped")

			msg := u.messageData(c)
			msg.Embedder = next
			title, err := renderMessage("embedder.title", cfg.Title, msg)
			if err != nil {
				return err
			}
			body, err := renderMessage("embedder.body", cfg.Body, msg)
			if err != nil {
				return err
			}
			task.SetTitle(fmt.Sprintf("Bump %s to %d", cfg.Marker, next))
			return u.commit(ctx, c, task, []string{cfg.File}, title, body)
		},
	}
}

func trimDash(s string) string {
	for len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	return s
}
