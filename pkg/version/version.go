package version

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/types"
)

// Version is an upstream version tuple.
type Version struct {
	Major int
	Minor int
	Build int
	Patch int
}

// Markers name the labels preceding each integer field in a version declaration file.
type Markers struct {
	Major string
	Minor string
	Build string
	Patch string
}

// DefaultMarkers are the labels used by the V8 version header.
var DefaultMarkers = Markers{
	Major: "V8_MAJOR_VERSION",
	Minor: "V8_MINOR_VERSION",
	Build: "V8_BUILD_NUMBER",
	Patch: "V8_PATCH_LEVEL",
}

func fieldPattern(marker string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(marker) + `\s+(\d+)`)
}

// Parse extracts the four fields from a version declaration text.
func Parse(text string, markers Markers) (Version, error) {
	labels := []string{markers.Major, markers.Minor, markers.Build, markers.Patch}
	fields := make([]int, len(labels))
	for i, label := range labels {
		match := fieldPattern(label).FindStringSubmatch(text)
		if match == nil {
			return Version{}, errors.Newf(errors.ErrVersionNotFound, "could not find %s in version declaration", label)
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return Version{}, errors.Wrapf(err, errors.ErrVersionNotFound, "invalid %s value %q", label, match[1])
		}
		fields[i] = n
	}
	return Version{Major: fields[0], Minor: fields[1], Build: fields[2], Patch: fields[3]}, nil
}

// ReadFile reads and parses the version declaration file at path.
func ReadFile(fsys types.FS, path string, markers Markers) (Version, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return Version{}, errors.Wrap(err, errors.ErrVersionNotFound, "could not find version").
			WithDetail(errors.DetailPath, path)
	}
	v, err := Parse(string(data), markers)
	if err != nil {
		return Version{}, errors.Wrap(err, errors.ErrVersionNotFound, "could not find version").
			WithDetail(errors.DetailPath, path)
	}
	return v, nil
}

// SetPatchLevel rewrites the patch-level field of a version declaration text.
// Only the first occurrence of the marker is replaced.
func SetPatchLevel(text string, markers Markers, patch int) (string, error) {
	re := fieldPattern(markers.Patch)
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", errors.Newf(errors.ErrVersionNotFound, "could not find %s in version declaration", markers.Patch)
	}
	return text[:loc[2]] + strconv.Itoa(patch) + text[loc[3]:], nil
}

// ParseTag parses a dot-joined tag such as "6.5.254.31".
func ParseTag(tag string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(tag), ".")
	if len(parts) != 4 {
		return Version{}, errors.Newf(errors.ErrInvalidInput, "tag %q is not a 4-component version", tag)
	}
	fields := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, errors.Newf(errors.ErrInvalidInput, "tag %q is not a 4-component version", tag)
		}
		fields[i] = n
	}
	return Version{Major: fields[0], Minor: fields[1], Build: fields[2], Patch: fields[3]}, nil
}

// Compare returns -1, 0 or +1 comparing a and b lexicographically.
func Compare(a, b Version) int {
	for i, av := range a.tuple() {
		bv := b.tuple()[i]
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	}
	return 0
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return Compare(v, other) < 0
}

// SameLine reports whether both versions share major, minor and build.
func SameLine(a, b Version) bool {
	return a.Major == b.Major && a.Minor == b.Minor && a.Build == b.Build
}

// Line returns the release line, e.g. "6.5.254".
func (v Version) Line() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
}

// LineNumber encodes major and minor as major*10+minor, the scale manifest
// thresholds are expressed in.
func (v Version) LineNumber() int {
	return v.Major*10 + v.Minor
}

// NextPatch returns v with the patch level incremented by one.
func (v Version) NextPatch() Version {
	v.Patch++
	return v
}

// String formats the version dot-joined.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Patch)
}

func (v Version) tuple() [4]int {
	return [4]int{v.Major, v.Minor, v.Build, v.Patch}
}

// SortTags parses tags (one per line, as printed by `git tag -l`) and returns
// them newest first. Lines that are not versions are ignored. Equal versions
// keep their input order.
func SortTags(output string) []Version {
	var versions []Version
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := ParseTag(line)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return Compare(versions[i], versions[j]) > 0
	})
	return versions
}
