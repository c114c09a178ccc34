package update

import (
	"context"
	"strings"

	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/pipeline"
	"github.com/arthur-debert/vendorsync/pkg/version"
)

// MinorPipeline advances the vendored tree to the newest tag of its release
// line.
func (u *Updater) MinorPipeline() *pipeline.Pipeline[Context] {
	return pipeline.New("Minor "+u.name()+" update",
		u.mirrorSync(),
		pipeline.Group("Minor "+u.name()+" update",
			u.checkTarget(),
			u.currentVersion(),
			u.latestVersion(),
			u.minorUpdate(),
		),
		u.commitUpdate(u.compareBody),
	)
}

// Minor runs the minor workflow.
func (u *Updater) Minor(ctx context.Context) (*Context, *pipeline.Report, error) {
	c := u.newContext()
	report, err := u.run(ctx, u.MinorPipeline(), c)
	return c, report, err
}

func (u *Updater) latestVersion() step {
	return step{
		Title: "Get latest " + u.name() + " version",
		Action: func(ctx context.Context, c *Context, task *pipeline.Task) error {
			out, err := u.upstream().Output(ctx, "tag", "-l", c.Current.Line()+".*")
			if err != nil {
				return err
			}
			tags := version.SortTags(out)
			if len(tags) == 0 {
				return errors.Newf(errors.ErrVersionNotFound, "no %s tag found for release line %s", u.name(), c.Current.Line())
			}
			c.Latest = tags[0]
			task.SetTitle("Get latest " + u.name() + " version: " + c.Latest.String())

			switch cmp := version.Compare(c.Current, c.Latest); {
			case cmp == 0:
				c.Skipped = true
				u.logger.Info().Str("version", c.Current.String()).Msg("Already up to date")
			case cmp > 0:
				c.Skipped = true
				c.Ahead = true
				u.logger.Warn().
					Str("current", c.Current.String()).
					Str("latest", c.Latest.String()).
					Msg("Vendored version is ahead of every upstream tag, nothing to do")
			}
			return nil
		},
	}
}

func (u *Updater) minorUpdate() step {
	return step{
		Title: "Do minor update",
		Skip:  func(c *Context) bool { return c.Skipped },
		Action: func(ctx context.Context, c *Context, task *pipeline.Task) error {
			latest := c.Latest.String()
			task.SetTitle("Do minor update to " + latest)

			diff, err := u.upstream().Run(ctx, "diff", c.Current.String(), latest)
			if err != nil {
				return err
			}
			c.Diff = diff.Stdout
			if strings.TrimSpace(c.Diff) == "" {
				u.logger.Info().Str("from", c.Current.String()).Str("to", latest).Msg("Empty diff between tags")
				return nil
			}
			return u.applyPatch(ctx, c, c.Diff, latest)
		},
	}
}

func (u *Updater) compareBody(c *Context) (string, error) {
	if u.cfg.Commit.Compare == "" || u.cfg.Upstream.WebURL == "" {
		return "", nil
	}
	data := u.messageData(c)
	data.To = c.Latest.String()
	return renderMessage("commit.compare", u.cfg.Commit.Compare, data)
}
