package vendorsync

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Keep a vendored V8 in step with upstream"
	MsgMinorShort      = "Update the vendored tree to the newest patch release"
	MsgMajorShort      = "Replace the vendored tree with a newer release branch"
	MsgBackportShort   = "Apply one upstream commit to the vendored tree"
	MsgConfigShort     = "Print the effective configuration"
	MsgVersionShort    = "Print build information"
	MsgCompletionShort = "Generate shell completion script"

	// Result messages
	MsgUpToDate       = "%s is already at %s\n"
	MsgAhead          = "%s %s is ahead of every upstream tag of %s, nothing to do\n"
	MsgUpdated        = "Updated %s from %s to %s\n"
	MsgBackported     = "Backported %s to %s %s\n"
	MsgCommitsCreated = "Created %d commit(s):\n"
	MsgCommitItem     = "  %s\n"

	// Flag descriptions
	MsgFlagVerbose   = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig    = "Config file (TOML or YAML)"
	MsgFlagTargetDir = "Downstream checkout vendoring the dependency (default: current directory)"
	MsgFlagBaseDir   = "Directory holding the upstream mirror"
	MsgFlagFormat    = "Output format: auto, term or text"
	MsgFlagTimings   = "Show the duration of every step"
	MsgFlagBranch    = "Upstream branch or tag to update to (default: resolved lkgr branch)"
	MsgFlagSHA       = "Full 40 character upstream commit to backport"
	MsgFlagNoBump    = "Do not bump the vendored patch level"
	MsgFlagYAML      = "Print YAML instead of TOML"
	MsgFlagPaths     = "Print the default locations instead of the configuration"

	// Error messages
	MsgErrNoCommand = "no command specified"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/minor-long.txt
	msgMinorLongRaw string
	MsgMinorLong    = strings.TrimSpace(msgMinorLongRaw)

	//go:embed msgs/major-long.txt
	msgMajorLongRaw string
	MsgMajorLong    = strings.TrimSpace(msgMajorLongRaw)

	//go:embed msgs/major-example.txt
	msgMajorExampleRaw string
	MsgMajorExample    = strings.TrimRight(msgMajorExampleRaw, "\n")

	//go:embed msgs/backport-long.txt
	msgBackportLongRaw string
	MsgBackportLong    = strings.TrimSpace(msgBackportLongRaw)

	//go:embed msgs/backport-example.txt
	msgBackportExampleRaw string
	MsgBackportExample    = strings.TrimRight(msgBackportExampleRaw, "\n")

	//go:embed msgs/config-long.txt
	msgConfigLongRaw string
	MsgConfigLong    = strings.TrimSpace(msgConfigLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
