// Package mirror keeps the local full-history mirror of the upstream
// repository present and up to date.
package mirror

import (
	"context"
	"os"

	"github.com/arthur-debert/vendorsync/pkg/config"
	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/gitutil"
	"github.com/arthur-debert/vendorsync/pkg/logging"
	"github.com/arthur-debert/vendorsync/pkg/pipeline"
	"github.com/arthur-debert/vendorsync/pkg/types"
	"github.com/rs/zerolog"
)

// State is the part of a workflow context the mirror steps read and write.
type State struct {
	ShouldClone bool
}

// Syncer fetches or clones the mirror.
type Syncer struct {
	cfg    *config.Config
	git    gitutil.Runner
	fs     types.FS
	logger zerolog.Logger
}

// NewSyncer creates a Syncer.
func NewSyncer(cfg *config.Config, git gitutil.Runner, fsys types.FS) *Syncer {
	return &Syncer{
		cfg:    cfg,
		git:    git,
		fs:     fsys,
		logger: logging.GetLogger("mirror"),
	}
}

// Fetch updates an existing mirror. A missing mirror directory is not an
// error: it flags the state for cloning.
func (s *Syncer) Fetch(ctx context.Context, st *State) error {
	dir := s.cfg.MirrorDir()
	if _, err := s.fs.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			s.logger.Info().Str("dir", dir).Msg("Mirror not found, will clone")
			st.ShouldClone = true
			return nil
		}
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot access mirror %s", dir).
			WithDetail(errors.DetailPath, dir)
	}

	if _, err := gitutil.In(s.git, dir).Run(ctx, "fetch", s.cfg.Upstream.Remote); err != nil {
		return err
	}
	s.logger.Debug().Str("dir", dir).Msg("Mirror fetched")
	return nil
}

// Clone creates the mirror inside the base directory.
func (s *Syncer) Clone(ctx context.Context) error {
	if err := s.fs.MkdirAll(s.cfg.BaseDir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", s.cfg.BaseDir).
			WithDetail(errors.DetailPath, s.cfg.BaseDir)
	}
	if _, err := gitutil.In(s.git, s.cfg.BaseDir).Run(ctx, "clone", s.cfg.Upstream.URL, s.cfg.MirrorName); err != nil {
		return err
	}
	s.logger.Info().Str("dir", s.cfg.MirrorDir()).Msg("Mirror cloned")
	return nil
}

// Steps returns the mirror group for a workflow whose context exposes its
// mirror State through state.
func Steps[C any](s *Syncer, state func(c *C) *State) pipeline.Step[C] {
	name := s.cfg.Upstream.Name
	return pipeline.Group("Update local "+name+" mirror",
		pipeline.Step[C]{
			Title: "Fetch " + name,
			Action: func(ctx context.Context, c *C, _ *pipeline.Task) error {
				return s.Fetch(ctx, state(c))
			},
		},
		pipeline.Step[C]{
			Title: "Clone " + name,
			Skip:  func(c *C) bool { return !state(c).ShouldClone },
			Action: func(ctx context.Context, _ *C, _ *pipeline.Task) error {
				return s.Clone(ctx)
			},
		},
	)
}
