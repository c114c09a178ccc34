// Package update implements the minor, major and backport workflows that
// reconcile a vendored upstream tree with the local mirror.
//
// Each workflow is a pipeline.Pipeline over a Context. All three start by
// syncing the mirror (backport validates its commit first), run their
// workflow-specific steps and finish with one or more commits in the target
// repository. Nothing is rolled back when a step fails: the target tree is
// left as the failing step found it and, for patch conflicts, the patch is
// written next to it as <version-or-sha>.diff.
package update
