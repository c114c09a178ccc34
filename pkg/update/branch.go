package update

import (
	"sort"
	"strconv"
	"strings"

	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/version"
)

// lkgrBranch is a last-known-good branch. Line-less branches (the moving
// tip) have line -1.
type lkgrBranch struct {
	name  string
	major int
	minor int
}

func (b lkgrBranch) tip() bool {
	return b.major < 0
}

// parseLkgrBranches extracts last-known-good branches from `git branch -r`
// output. Entries are sorted by release line, the moving tip last.
func parseLkgrBranches(output, remote, suffix string) []lkgrBranch {
	tipName := strings.TrimPrefix(suffix, "-")
	var branches []lkgrBranch
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		if line == "" || strings.Contains(line, "->") {
			continue
		}
		name := strings.TrimPrefix(line, remote+"/")

		if name == tipName {
			branches = append(branches, lkgrBranch{name: name, major: -1, minor: -1})
			continue
		}
		lineName, ok := strings.CutSuffix(name, suffix)
		if !ok {
			continue
		}
		parts := strings.Split(lineName, ".")
		if len(parts) != 2 {
			continue
		}
		major, err1 := strconv.Atoi(parts[0])
		minor, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			continue
		}
		branches = append(branches, lkgrBranch{name: name, major: major, minor: minor})
	}

	sort.SliceStable(branches, func(i, j int) bool {
		a, b := branches[i], branches[j]
		if a.tip() != b.tip() {
			return b.tip()
		}
		if a.major != b.major {
			return a.major < b.major
		}
		return a.minor < b.minor
	})
	return branches
}

// selectLkgrBranch picks the update target for current among branches: the
// next-to-last entry beyond the current release line. A sole candidate is
// returned as is; warn is set when that candidate is the moving tip.
func selectLkgrBranch(branches []lkgrBranch, current version.Version) (name string, warn bool, err error) {
	var beyond []lkgrBranch
	for _, b := range branches {
		if b.tip() || b.major > current.Major || (b.major == current.Major && b.minor > current.Minor) {
			beyond = append(beyond, b)
		}
	}

	switch len(beyond) {
	case 0:
		return "", false, errors.Newf(errors.ErrNotFound,
			"no last-known-good branch found beyond %d.%d", current.Major, current.Minor)
	case 1:
		return beyond[0].name, beyond[0].tip(), nil
	default:
		return beyond[len(beyond)-2].name, false, nil
	}
}
