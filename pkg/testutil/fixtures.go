package testutil

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/vendorsync/pkg/version"
)

// VersionHeader renders a version header declaring v with the default markers.
func VersionHeader(v version.Version) string {
	return fmt.Sprintf(`#ifndef INCLUDE_VERSION_H_
#define INCLUDE_VERSION_H_

#define V8_MAJOR_VERSION %d
#define V8_MINOR_VERSION %d
#define V8_BUILD_NUMBER %d
#define V8_PATCH_LEVEL %d

#define V8_IS_CANDIDATE_VERSION 0

#endif  // INCLUDE_VERSION_H_
`, v.Major, v.Minor, v.Build, v.Patch)
}

// DepsFile renders a DEPS file pinning each key to its repo@commit value.
func DepsFile(pins map[string]string, order ...string) string {
	var b strings.Builder
	b.WriteString("vars = {\n  'chromium_url': 'https://chromium.googlesource.com',\n}\n\ndeps = {\n")
	for _, key := range order {
		fmt.Fprintf(&b, "  '%s':\n    Var('chromium_url') + '%s',\n", key, pins[key])
	}
	b.WriteString("}\n")
	return b.String()
}

// TagList renders `git tag -l` output for the given tags.
func TagList(tags ...string) string {
	return strings.Join(tags, "\n") + "\n"
}
