package ui

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/pipeline"
)

// RenderError formats a workflow failure. The short form names the failing
// step and its message; verbose adds the error code, details and the
// captured stderr of a failed command.
func RenderError(err error, format Format, verbose bool) string {
	if err == nil {
		return ""
	}

	title, message := "", err.Error()
	var stepErr *pipeline.StepError
	if stderrors.As(err, &stepErr) {
		title = stepErr.Title
		message = shortMessage(stepErr.Err)
	}

	var head string
	if title != "" {
		head = fmt.Sprintf("%s %s: %s", symbolFailed, title, message)
	} else {
		head = fmt.Sprintf("%s %s", symbolFailed, message)
	}
	if path, ok := errors.DiffPath(err); ok {
		head += "\n  diff: " + path
	}

	if !verbose {
		if format == FormatTerminal {
			return ErrorStyle.Render(head)
		}
		return head
	}

	var b strings.Builder
	b.WriteString(head)
	fmt.Fprintf(&b, "\n  code: %s", errors.GetErrorCode(err))
	fmt.Fprintf(&b, "\n  error: %s", err.Error())

	details := errors.GetErrorDetails(err)
	keys := make([]string, 0, len(details))
	for k := range details {
		if k != errors.DetailStderr {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %v", k, details[k])
	}
	if stderr, _ := details[errors.DetailStderr].(string); strings.TrimSpace(stderr) != "" {
		b.WriteString("\n  stderr:")
		for _, line := range strings.Split(strings.TrimRight(stderr, "\n"), "\n") {
			b.WriteString("\n    " + line)
		}
	}

	if format == FormatTerminal {
		lines := strings.SplitN(b.String(), "\n", 2)
		out := ErrorStyle.Render(lines[0])
		if len(lines) > 1 {
			out += "\n" + DetailsStyle.Render(lines[1])
		}
		return BannerStyle.Render(out)
	}
	return b.String()
}

// shortMessage is the message of the outermost coded error, without its
// code prefix or wrapped causes.
func shortMessage(err error) string {
	var syncErr *errors.SyncError
	if stderrors.As(err, &syncErr) {
		return syncErr.Message
	}
	return err.Error()
}
