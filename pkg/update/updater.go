package update

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/arthur-debert/vendorsync/pkg/config"
	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/gitutil"
	"github.com/arthur-debert/vendorsync/pkg/logging"
	"github.com/arthur-debert/vendorsync/pkg/manifest"
	"github.com/arthur-debert/vendorsync/pkg/mirror"
	"github.com/arthur-debert/vendorsync/pkg/pipeline"
	"github.com/arthur-debert/vendorsync/pkg/types"
	"github.com/arthur-debert/vendorsync/pkg/version"
	"github.com/rs/zerolog"
)

type step = pipeline.Step[Context]

// Updater builds and runs the workflows against one target repository.
type Updater struct {
	cfg      *config.Config
	git      gitutil.Runner
	fs       types.FS
	deps     *manifest.Manifest
	mirror   *mirror.Syncer
	observer pipeline.Observer
	logger   zerolog.Logger
}

// New creates an Updater. Git commands run through git; every file the
// workflows read or rewrite directly goes through fsys.
func New(cfg *config.Config, git gitutil.Runner, fsys types.FS) *Updater {
	return &Updater{
		cfg:    cfg,
		git:    git,
		fs:     fsys,
		deps:   manifest.Default(),
		mirror: mirror.NewSyncer(cfg, git, fsys),
		logger: logging.GetLogger("update"),
	}
}

// WithObserver sets the observer attached to every pipeline the Updater runs.
func (u *Updater) WithObserver(o pipeline.Observer) *Updater {
	u.observer = o
	return u
}

// WithManifest replaces the compiled-in nested dependency table.
func (u *Updater) WithManifest(m *manifest.Manifest) *Updater {
	u.deps = m
	return u
}

func (u *Updater) newContext() *Context {
	return &Context{
		TargetDir: u.cfg.Target.Dir,
		MirrorDir: u.cfg.MirrorDir(),
	}
}

func (u *Updater) run(ctx context.Context, p *pipeline.Pipeline[Context], c *Context) (*pipeline.Report, error) {
	if u.observer != nil {
		p.WithObserver(u.observer)
	}
	return p.Run(ctx, c)
}

func (u *Updater) target() *gitutil.Repo {
	return gitutil.In(u.git, u.cfg.Target.Dir)
}

func (u *Updater) upstream() *gitutil.Repo {
	return gitutil.In(u.git, u.cfg.MirrorDir())
}

func (u *Updater) name() string {
	return u.cfg.Upstream.Name
}

func (u *Updater) mirrorSync() step {
	return mirror.Steps(u.mirror, mirrorState)
}

func (u *Updater) checkTarget() step {
	return step{
		Title: "Check target directory",
		Skip:  func(*Context) bool { return u.cfg.Target.CheckFile == "" },
		Action: func(_ context.Context, c *Context, _ *pipeline.Task) error {
			path := filepath.Join(c.TargetDir, u.cfg.Target.CheckFile)
			notTarget := errors.Newf(errors.ErrPrecondition,
				"this does not seem to be the expected repository (cwd: %s)", c.TargetDir).
				WithDetail(errors.DetailPath, path)

			data, err := u.fs.ReadFile(path)
			if err != nil {
				return notTarget
			}
			pattern := u.cfg.Target.CheckPattern
			if pattern == "" {
				return nil
			}
			match := regexp.MustCompile(pattern).FindSubmatch(data)
			if match == nil {
				return notTarget
			}
			if n, err := strconv.Atoi(string(match[1])); err == nil {
				c.DownstreamMajor = n
			}
			u.logger.Debug().Int("major", c.DownstreamMajor).Str("dir", c.TargetDir).Msg("Target directory checked")
			return nil
		},
	}
}

func (u *Updater) currentVersion() step {
	return step{
		Title: "Get current " + u.name() + " version",
		Action: func(_ context.Context, c *Context, task *pipeline.Task) error {
			v, err := u.readVersion()
			if err != nil {
				return err
			}
			c.Current = v
			task.SetTitle("Get current " + u.name() + " version: " + v.String())
			return nil
		},
	}
}

func (u *Updater) readVersion() (version.Version, error) {
	return version.ReadFile(u.fs, u.cfg.VersionFile(), u.cfg.Markers())
}

// applyPatch applies patch to the vendored tree with a three-way merge. On
// failure the patch is written to <target>/<name>.diff.
func (u *Updater) applyPatch(ctx context.Context, c *Context, patch, name string) error {
	args := []string{"apply", "-3", "--directory=" + filepath.ToSlash(u.cfg.Target.VendoredPath)}
	_, applyErr := u.target().RunWithInput(ctx, patch, args...)
	if applyErr == nil {
		return nil
	}

	return u.storeConflict(c, patch, name, applyErr)
}

// storeConflict writes the patch that failed with cause to <target>/<name>.diff
// and returns the matching patch conflict.
func (u *Updater) storeConflict(c *Context, patch, name string, cause error) error {
	diffPath := filepath.Join(c.TargetDir, name+".diff")
	if err := u.fs.WriteFile(diffPath, []byte(patch), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "could not apply patch and could not store it in %s", diffPath).
			WithDetail(errors.DetailPath, diffPath).
			WithDetail(errors.DetailStderr, gitutil.Stderr(cause))
	}
	u.logger.Warn().Str("diff", diffPath).Msg("Patch did not apply")
	return errors.PatchConflict(cause, diffPath).
		WithDetail(errors.DetailStderr, gitutil.Stderr(cause))
}

// commit stages paths in the target repository and commits them. A commit
// with nothing staged is skipped and reported through task.
func (u *Updater) commit(ctx context.Context, c *Context, task *pipeline.Task, paths []string, title string, body ...string) error {
	committed, err := u.target().Commit(ctx, paths, title, body...)
	if err != nil {
		return err
	}
	if !committed {
		u.logger.Info().Str("title", title).Msg("Nothing to commit")
		if task != nil {
			task.Skip("nothing to commit")
		}
		return nil
	}
	c.Commits = append(c.Commits, title)
	u.logger.Info().Str("title", title).Msg("Committed")
	return nil
}

// commitUpdate is the shared commit step: it re-reads the vendored version
// and commits the vendored tree with the update message.
func (u *Updater) commitUpdate(body func(c *Context) (string, error)) step {
	return step{
		Title: "Commit " + u.name() + " update",
		Skip:  func(c *Context) bool { return c.Skipped },
		Action: func(ctx context.Context, c *Context, task *pipeline.Task) error {
			v, err := u.readVersion()
			if err != nil {
				return err
			}
			c.NewVersion = v

			title, err := renderMessage("commit.update", u.cfg.Commit.Update, u.messageData(c))
			if err != nil {
				return err
			}
			var paragraphs []string
			if body != nil {
				b, err := body(c)
				if err != nil {
					return err
				}
				paragraphs = append(paragraphs, b)
			}
			c.Message = title
			return u.commit(ctx, c, task, []string{u.cfg.Target.VendoredPath}, title, paragraphs...)
		},
	}
}

func (u *Updater) messageData(c *Context) messageData {
	d := messageData{
		Name:    u.name(),
		WebURL:  u.cfg.Upstream.WebURL,
		Version: c.NewVersion.String(),
		From:    c.Current.String(),
		To:      c.NewVersion.String(),
		SHA:     c.SHA,
		Line:    fmt.Sprintf("%d.%d", c.NewVersion.Major, c.NewVersion.Minor),
	}
	if len(c.SHA) >= 7 {
		d.Short = c.SHA[:7]
	}
	return d
}

func (u *Updater) exists(path string) bool {
	_, err := u.fs.Stat(path)
	return err == nil || !os.IsNotExist(err)
}
