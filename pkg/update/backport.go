package update

import (
	"context"
	"encoding/hex"
	"path/filepath"

	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/pipeline"
	"github.com/arthur-debert/vendorsync/pkg/version"
)

const shaLength = 40

// BackportPipeline cherry-picks one upstream commit into the vendored tree.
func (u *Updater) BackportPipeline() *pipeline.Pipeline[Context] {
	return pipeline.New(u.name()+" commit backport",
		u.validateSHA(),
		u.mirrorSync(),
		pipeline.Group(u.name()+" commit backport",
			u.checkTarget(),
			u.currentVersion(),
			u.generatePatch(),
			u.applyBackport(),
		),
		u.commitBackport(),
		u.incrementVersion(),
		u.commitBump(),
	)
}

// Backport runs the backport workflow for sha. bump requests a separate
// patch-level increment commit.
func (u *Updater) Backport(ctx context.Context, sha string, bump bool) (*Context, *pipeline.Report, error) {
	c := u.newContext()
	c.SHA = sha
	c.Bump = bump
	report, err := u.run(ctx, u.BackportPipeline(), c)
	return c, report, err
}

// ValidateSHA checks that sha is a full hexadecimal commit identifier.
func ValidateSHA(sha string) error {
	if len(sha) != shaLength {
		return errors.Newf(errors.ErrPrecondition, "--sha option is required and must be %d characters long", shaLength)
	}
	if _, err := hex.DecodeString(sha); err != nil {
		return errors.Newf(errors.ErrPrecondition, "%s is not a hexadecimal commit identifier", sha)
	}
	return nil
}

func (u *Updater) validateSHA() step {
	return step{
		Title: "Validate commit",
		Action: func(_ context.Context, c *Context, _ *pipeline.Task) error {
			return ValidateSHA(c.SHA)
		},
	}
}

func (u *Updater) generatePatch() step {
	return step{
		Title: "Generate patch",
		Action: func(ctx context.Context, c *Context, task *pipeline.Task) error {
			repo := u.upstream()
			patch, err := repo.Run(ctx, "format-patch", "--stdout", c.SHA+"^.."+c.SHA)
			if err != nil {
				return err
			}
			message, err := repo.Run(ctx, "log", "--format=%B", "-n", "1", c.SHA)
			if err != nil {
				return err
			}
			c.Patch = patch.Stdout
			c.Message = message.Stdout
			task.SetTitle("Generate patch for " + c.SHA[:7])
			return nil
		},
	}
}

func (u *Updater) applyBackport() step {
	return step{
		Title: "Apply patch to " + u.cfg.Target.VendoredPath,
		Action: func(ctx context.Context, c *Context, _ *pipeline.Task) error {
			return u.applyPatch(ctx, c, c.Patch, c.SHA)
		},
	}
}

func (u *Updater) commitBackport() step {
	return step{
		Title: "Commit patch",
		Action: func(ctx context.Context, c *Context, task *pipeline.Task) error {
			title, err := renderMessage("commit.backport", u.cfg.Commit.Backport, u.messageData(c))
			if err != nil {
				return err
			}
			body := backportBody(c.Message, u.cfg.Upstream.WebURL, c.SHA)
			return u.commit(ctx, c, task, []string{u.cfg.Target.VendoredPath}, title, body)
		},
	}
}

func (u *Updater) incrementVersion() step {
	return step{
		Title: "Increment " + u.name() + " version",
		Skip:  func(c *Context) bool { return !c.Bump },
		Action: func(_ context.Context, c *Context, task *pipeline.Task) error {
			path := u.cfg.VersionFile()
			data, err := u.fs.ReadFile(path)
			if err != nil {
				return errors.Wrap(err, errors.ErrVersionNotFound, "could not find version").
					WithDetail(errors.DetailPath, path)
			}
			vendored, err := version.Parse(string(data), u.cfg.Markers())
			if err != nil {
				return errors.Wrap(err, errors.ErrVersionNotFound, "could not find version").
					WithDetail(errors.DetailPath, path)
			}
			next := vendored.NextPatch()
			text, err := version.SetPatchLevel(string(data), u.cfg.Markers(), next.Patch)
			if err != nil {
				return errors.Wrap(err, errors.ErrVersionNotFound, "could not find version").
					WithDetail(errors.DetailPath, path)
			}
			if err := u.fs.WriteFile(path, []byte(text), 0644); err != nil {
				return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", path).
					WithDetail(errors.DetailPath, path)
			}
			c.NewVersion = next
			task.SetTitle("Increment " + u.name() + " version to " + next.String())
			return nil
		},
	}
}

func (u *Updater) commitBump() step {
	return step{
		Title: "Commit version bump",
		Skip:  func(c *Context) bool { return !c.Bump },
		Action: func(ctx context.Context, c *Context, task *pipeline.Task) error {
			title, err := renderMessage("commit.bump", u.cfg.Commit.Bump, u.messageData(c))
			if err != nil {
				return err
			}
			versionFile := filepath.Join(u.cfg.Target.VendoredPath, u.cfg.Version.File)
			return u.commit(ctx, c, task, []string{versionFile}, title)
		},
	}
}
