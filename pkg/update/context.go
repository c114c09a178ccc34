package update

import (
	"github.com/arthur-debert/vendorsync/pkg/mirror"
	"github.com/arthur-debert/vendorsync/pkg/version"
)

// Context is the record threaded through one workflow run.
type Context struct {
	mirror.State

	TargetDir string
	MirrorDir string

	// Branch is the requested or resolved major update target.
	Branch string
	// BranchIsTag is set when Branch names a tag rather than a remote branch.
	BranchIsTag bool
	// SHA is the upstream commit to backport.
	SHA string
	// Bump requests a patch-level increment after a backport.
	Bump bool

	// DownstreamMajor is the major version found by the target check.
	DownstreamMajor int

	Current    version.Version
	Latest     version.Version
	NewVersion version.Version

	Diff    string
	Patch   string
	Message string

	// Skipped marks the run as a no-op; commit steps do not run.
	Skipped bool
	// Ahead is set when the vendored version is newer than every upstream tag
	// of its release line.
	Ahead bool

	// Commits lists the titles of the commits created, in order.
	Commits []string
}

func mirrorState(c *Context) *mirror.State {
	return &c.State
}
