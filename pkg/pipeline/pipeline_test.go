package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/arthur-debert/vendorsync/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runState struct {
	ran     []string
	skipped bool
	target  string
}

func record(name string) pipeline.Step[runState] {
	return pipeline.Step[runState]{
		Title: name,
		Action: func(_ context.Context, s *runState, _ *pipeline.Task) error {
			s.ran = append(s.ran, name)
			return nil
		},
	}
}

type recordingObserver struct {
	started  []string
	finished []pipeline.Outcome
}

func (r *recordingObserver) StepStarted(title string, _ int) {
	r.started = append(r.started, title)
}

func (r *recordingObserver) StepFinished(o pipeline.Outcome) {
	r.finished = append(r.finished, o)
}

func TestRunInOrder(t *testing.T) {
	state := &runState{}
	report, err := pipeline.New("ordered", record("a"), record("b"), record("c")).Run(context.Background(), state)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, state.ran)
	assert.Equal(t, 3, report.Count(pipeline.StatusDone))
}

func TestSkipPredicate(t *testing.T) {
	skipped := record("skipped")
	skipped.Skip = func(s *runState) bool { return s.skipped }

	state := &runState{skipped: true}
	report, err := pipeline.New("skip", record("a"), skipped, record("c")).Run(context.Background(), state)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, state.ran)

	outcome, ok := report.Find("skipped")
	require.True(t, ok)
	assert.Equal(t, pipeline.StatusSkipped, outcome.Status)
}

func TestSkipPredicateSeesEarlierMutations(t *testing.T) {
	flagger := pipeline.Step[runState]{
		Title: "flag",
		Action: func(_ context.Context, s *runState, _ *pipeline.Task) error {
			s.skipped = true
			return nil
		},
	}
	commit := record("commit")
	commit.Skip = func(s *runState) bool { return s.skipped }

	state := &runState{}
	_, err := pipeline.New("flag", flagger, commit).Run(context.Background(), state)
	require.NoError(t, err)
	assert.Empty(t, state.ran)
}

func TestFailFast(t *testing.T) {
	boom := errors.New("boom")
	failing := pipeline.Step[runState]{
		Title: "failing",
		Action: func(context.Context, *runState, *pipeline.Task) error {
			return boom
		},
	}

	state := &runState{}
	observer := &recordingObserver{}
	report, err := pipeline.New("failfast", record("a"), failing, record("never")).
		WithObserver(observer).
		Run(context.Background(), state)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var stepErr *pipeline.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "failing", stepErr.Title)
	assert.Equal(t, "failing: boom", err.Error())

	assert.Equal(t, []string{"a"}, state.ran)
	assert.Equal(t, []string{"a", "failing"}, observer.started)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, pipeline.StatusFailed, report.Outcomes[1].Status)
}

func TestTitleMutation(t *testing.T) {
	step := pipeline.Step[runState]{
		Title: "Do minor update",
		Action: func(_ context.Context, s *runState, task *pipeline.Task) error {
			s.target = "6.5.254.31"
			task.SetTitle("Do minor update to " + s.target)
			assert.Equal(t, "Do minor update to 6.5.254.31", task.Title())
			return nil
		},
	}

	observer := &recordingObserver{}
	report, err := pipeline.New("title", step).WithObserver(observer).Run(context.Background(), &runState{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Do minor update"}, observer.started)
	assert.Equal(t, "Do minor update to 6.5.254.31", observer.finished[0].Title)
	_, ok := report.Find("Do minor update to 6.5.254.31")
	assert.True(t, ok)
}

func TestTaskSkip(t *testing.T) {
	step := pipeline.Step[runState]{
		Title: "bump",
		Action: func(_ context.Context, _ *runState, task *pipeline.Task) error {
			task.Skip("version is the same")
			return nil
		},
	}
	report, err := pipeline.New("task skip", step, record("after")).Run(context.Background(), &runState{})
	require.NoError(t, err)

	outcome, _ := report.Find("bump")
	assert.Equal(t, pipeline.StatusSkipped, outcome.Status)
	assert.Equal(t, "version is the same", outcome.Reason)
	assert.Equal(t, pipeline.StatusDone, report.Outcomes[1].Status)
}

func TestGroup(t *testing.T) {
	t.Run("children run in order", func(t *testing.T) {
		state := &runState{}
		group := pipeline.Group("minor", record("check"), record("current"), record("latest"))
		report, err := pipeline.New("group", record("mirror"), group, record("commit")).Run(context.Background(), state)

		require.NoError(t, err)
		assert.Equal(t, []string{"mirror", "check", "current", "latest", "commit"}, state.ran)

		outcome, ok := report.Find("minor")
		require.True(t, ok)
		assert.Equal(t, 0, outcome.Depth)
		check, _ := report.Find("check")
		assert.Equal(t, 1, check.Depth)
	})

	t.Run("child failure reports the child", func(t *testing.T) {
		state := &runState{}
		failing := pipeline.Step[runState]{
			Title:  "apply",
			Action: func(context.Context, *runState, *pipeline.Task) error { return errors.New("conflict") },
		}
		group := pipeline.Group("minor", record("check"), failing, record("never"))
		_, err := pipeline.New("group", group, record("commit")).Run(context.Background(), state)

		var stepErr *pipeline.StepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, "apply", stepErr.Title)
		assert.Equal(t, []string{"check"}, state.ran)
	})

	t.Run("skipped group skips children", func(t *testing.T) {
		state := &runState{skipped: true}
		group := pipeline.Group("minor", record("check"))
		group.Skip = func(s *runState) bool { return s.skipped }
		_, err := pipeline.New("group", group).Run(context.Background(), state)
		require.NoError(t, err)
		assert.Empty(t, state.ran)
	})
}

func TestCancelledContextStopsBeforeNextStep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	canceller := pipeline.Step[runState]{
		Title: "cancel",
		Action: func(_ context.Context, s *runState, _ *pipeline.Task) error {
			s.ran = append(s.ran, "cancel")
			cancel()
			return nil
		},
	}

	state := &runState{}
	_, err := pipeline.New("cancel", canceller, record("never")).Run(ctx, state)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"cancel"}, state.ran)
}
