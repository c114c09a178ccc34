package update

import (
	"strings"
	"text/template"

	"github.com/arthur-debert/vendorsync/pkg/errors"
)

// messageData is available to every commit message template.
type messageData struct {
	Name       string
	WebURL     string
	Version    string
	From       string
	To         string
	Dependency string
	Commit     string
	SHA        string
	Short      string
	Line       string
	Embedder   int
}

func renderMessage(name, text string, data messageData) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrConfigParse, "invalid %s template", name)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", errors.Wrapf(err, errors.ErrConfigParse, "cannot render %s template", name)
	}
	return strings.TrimSpace(b.String()), nil
}

// backportBody reproduces the original commit message indented by four
// spaces, followed by a link back to the upstream commit.
func backportBody(message, webURL, sha string) string {
	message = strings.TrimRight(message, "\n")
	return "Original commit message:\n\n    " +
		strings.ReplaceAll(message, "\n", "\n    ") +
		"\n\nRefs: " + strings.TrimRight(webURL, "/") + "/commit/" + sha
}
