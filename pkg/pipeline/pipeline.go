package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/arthur-debert/vendorsync/pkg/logging"
	"github.com/rs/zerolog"
)

// Step is one unit of work. Action receives the shared context and the Task
// handle for the running step. A Step with Steps set is a group: its children
// run in order in place of an action.
type Step[C any] struct {
	Title  string
	Skip   func(c *C) bool
	Action func(ctx context.Context, c *C, task *Task) error
	Steps  []Step[C]
}

// Group bundles steps under a common title.
func Group[C any](title string, steps ...Step[C]) Step[C] {
	return Step[C]{Title: title, Steps: steps}
}

// Task is the running step's handle.
type Task struct {
	title      string
	skipped    bool
	skipReason string
}

// Title returns the step's current title.
func (t *Task) Title() string {
	return t.title
}

// SetTitle replaces the step's displayed title.
func (t *Task) SetTitle(title string) {
	t.title = title
}

// Skip marks the running step as skipped once its action returns without error.
func (t *Task) Skip(reason string) {
	t.skipped = true
	t.skipReason = reason
}

// Status is the outcome of one step.
type Status string

const (
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to one step.
type Outcome struct {
	Title    string
	Depth    int
	Status   Status
	Reason   string
	Err      error
	Duration time.Duration
}

// Report lists step outcomes in completion order. Children of a group are
// reported before the group itself.
type Report struct {
	Title    string
	Outcomes []Outcome
}

// Find returns the outcome of the first step with the given title.
func (r *Report) Find(title string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Title == title {
			return o, true
		}
	}
	return Outcome{}, false
}

// Count returns how many steps ended with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Observer is notified as steps start and finish.
type Observer interface {
	StepStarted(title string, depth int)
	StepFinished(outcome Outcome)
}

// StepError is returned by Run when a step fails.
type StepError struct {
	Title string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Title, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Pipeline is an ordered list of steps.
type Pipeline[C any] struct {
	title    string
	steps    []Step[C]
	observer Observer
	logger   zerolog.Logger
}

// New creates a pipeline.
func New[C any](title string, steps ...Step[C]) *Pipeline[C] {
	return &Pipeline[C]{
		title:  title,
		steps:  steps,
		logger: logging.GetLogger("pipeline"),
	}
}

// WithObserver sets the observer notified of step progress.
func (p *Pipeline[C]) WithObserver(o Observer) *Pipeline[C] {
	p.observer = o
	return p
}

// Steps returns the top-level steps.
func (p *Pipeline[C]) Steps() []Step[C] {
	return p.steps
}

// Run executes the steps against c. The report is returned even when a step fails.
func (p *Pipeline[C]) Run(ctx context.Context, c *C) (*Report, error) {
	report := &Report{Title: p.title}
	done := logging.LogOperationStart(p.logger, p.title)
	defer done()

	err := p.runSteps(ctx, c, p.steps, 0, report)
	if err != nil {
		p.logger.Error().Err(err).Str("pipeline", p.title).Msg("Pipeline failed")
		return report, err
	}
	p.logger.Info().
		Str("pipeline", p.title).
		Int("done", report.Count(StatusDone)).
		Int("skipped", report.Count(StatusSkipped)).
		Msg("Pipeline completed")
	return report, nil
}

func (p *Pipeline[C]) runSteps(ctx context.Context, c *C, steps []Step[C], depth int, report *Report) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Title: step.Title, Err: err}
		}

		if step.Skip != nil && step.Skip(c) {
			p.finish(report, Outcome{Title: step.Title, Depth: depth, Status: StatusSkipped})
			continue
		}

		if p.observer != nil {
			p.observer.StepStarted(step.Title, depth)
		}
		p.logger.Debug().Str("step", step.Title).Int("depth", depth).Msg("Step started")

		task := &Task{title: step.Title}
		start := time.Now()
		var err error
		switch {
		case len(step.Steps) > 0:
			err = p.runSteps(ctx, c, step.Steps, depth+1, report)
		case step.Action != nil:
			err = step.Action(ctx, c, task)
		}
		outcome := Outcome{Title: task.title, Depth: depth, Duration: time.Since(start)}

		if err != nil {
			outcome.Status = StatusFailed
			outcome.Err = err
			p.finish(report, outcome)
			if stepErr, ok := err.(*StepError); ok {
				return stepErr
			}
			return &StepError{Title: task.title, Err: err}
		}

		outcome.Status = StatusDone
		if task.skipped {
			outcome.Status = StatusSkipped
			outcome.Reason = task.skipReason
		}
		p.finish(report, outcome)
	}
	return nil
}

func (p *Pipeline[C]) finish(report *Report, o Outcome) {
	report.Outcomes = append(report.Outcomes, o)
	event := p.logger.Debug()
	if o.Status == StatusFailed {
		event = p.logger.Warn().Err(o.Err)
	}
	event.Str("step", o.Title).
		Str("status", string(o.Status)).
		Str("reason", o.Reason).
		Dur("duration", o.Duration).
		Msg("Step finished")
	if p.observer != nil {
		p.observer.StepFinished(o)
	}
}
