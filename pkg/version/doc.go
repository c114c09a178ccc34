// Package version models the 4-component upstream version identifier
// (major, minor, build, patch) declared in the vendored tree's version header.
//
// Versions compare lexicographically over the tuple. The first three
// components form the release line that patch-level tags are grouped by.
package version
