package vendorsync

import (
	"os"
	"strings"
	"text/template"

	"github.com/arthur-debert/vendorsync/pkg/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func styledOutput() bool {
	return ui.DetectFormat(os.Stdout) == ui.FormatTerminal
}

// formatBold returns the string formatted as bold using pterm
func formatBold(s string) string {
	if !styledOutput() {
		return s
	}
	return pterm.Bold.Sprint(s)
}

// formatBoldUpper returns the string in uppercase and bold
func formatBoldUpper(s string) string {
	return formatBold(strings.ToUpper(s))
}

// initTemplateFormatting adds custom formatting functions to Cobra templates
func initTemplateFormatting() {
	cobra.AddTemplateFuncs(template.FuncMap{
		"bold":      formatBold,
		"upper":     strings.ToUpper,
		"boldUpper": formatBoldUpper,
	})
}
