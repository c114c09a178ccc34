package ui_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/pipeline"
	"github.com/arthur-debert/vendorsync/pkg/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want ui.Format
	}{
		{"", ui.FormatAuto},
		{"auto", ui.FormatAuto},
		{"term", ui.FormatTerminal},
		{"Terminal", ui.FormatTerminal},
		{"plain", ui.FormatText},
	}
	for _, tt := range tests {
		got, err := ui.ParseFormat(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
		if tt.want != ui.FormatAuto {
			assert.Equal(t, tt.want, got.Resolve(nil))
		}
	}

	_, err := ui.ParseFormat("json")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestStepRendererText(t *testing.T) {
	var out bytes.Buffer
	r := ui.NewStepRenderer(&out, ui.FormatText)

	type state struct{}
	step := func(title string) pipeline.Step[state] {
		return pipeline.Step[state]{
			Title:  title,
			Action: func(_ context.Context, _ *state, _ *pipeline.Task) error { return nil },
		}
	}
	skipped := step("Clone V8")
	skipped.Skip = func(*state) bool { return true }

	_, err := pipeline.New("minor",
		pipeline.Group("Update local V8 mirror", step("Fetch V8"), skipped),
		step("Commit V8 update"),
	).WithObserver(r).Run(context.Background(), &state{})
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"❯ Update local V8 mirror",
		"  ❯ Fetch V8",
		"  ✔ Fetch V8",
		"  ↓ Clone V8 [skipped]",
		"✔ Update local V8 mirror",
		"❯ Commit V8 update",
		"✔ Commit V8 update",
	}, "\n")+"\n", out.String())
}

func TestStepRendererFailure(t *testing.T) {
	var out bytes.Buffer
	r := ui.NewStepRenderer(&out, ui.FormatText)
	r.StepFinished(pipeline.Outcome{Title: "Do minor update to 6.5.254.31", Depth: 1, Status: pipeline.StatusFailed})
	r.StepFinished(pipeline.Outcome{Title: "Commit patch", Status: pipeline.StatusSkipped, Reason: "nothing to commit"})
	assert.Equal(t, "  ✖ Do minor update to 6.5.254.31\n↓ Commit patch [skipped] nothing to commit\n", out.String())
}

func TestRenderError(t *testing.T) {
	cause := errors.New(errors.ErrCommand, "git apply -3 --directory=deps/v8 failed").
		WithDetail(errors.DetailStderr, "error: patch failed: src/api.cc:12\nerror: src/api.cc: patch does not apply\n")
	conflict := errors.PatchConflict(cause, "/work/node/6.5.254.31.diff").
		WithDetail(errors.DetailStderr, "error: patch failed: src/api.cc:12\nerror: src/api.cc: patch does not apply\n")
	err := &pipeline.StepError{Title: "Do minor update to 6.5.254.31", Err: conflict}

	short := ui.RenderError(err, ui.FormatText, false)
	assert.Equal(t, "✖ Do minor update to 6.5.254.31: could not apply patch, diff was stored in /work/node/6.5.254.31.diff\n"+
		"  diff: /work/node/6.5.254.31.diff", short)

	verbose := ui.RenderError(err, ui.FormatText, true)
	assert.Contains(t, verbose, "code: PATCH_CONFLICT")
	assert.Contains(t, verbose, "diffPath: /work/node/6.5.254.31.diff")
	assert.Contains(t, verbose, "stderr:\n    error: patch failed: src/api.cc:12\n    error: src/api.cc: patch does not apply")

	assert.Equal(t, "✖ boom", ui.RenderError(stderrors.New("boom"), ui.FormatText, false))
	assert.Empty(t, ui.RenderError(nil, ui.FormatText, true))
}
