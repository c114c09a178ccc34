// Package paths resolves the default locations vendorsync reads from and
// writes to, following the XDG Base Directory specification.
package paths
