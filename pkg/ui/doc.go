// Package ui renders workflow progress and failures on the console.
//
// StepRenderer implements pipeline.Observer. It prints one line when a step
// starts and one when it ends, indented by group depth. Rich terminal output
// uses pterm and lipgloss; piped output, NO_COLOR and ASCII-only terminals
// get plain text.
package ui
