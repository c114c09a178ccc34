// Package gitutil runs the git binary on behalf of the update steps.
//
// A failed invocation surfaces as a COMMAND error wrapping *GitExecError,
// which carries the captured standard error.
package gitutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/logging"
)

// Command is one git invocation. Args omit the leading "git".
type Command struct {
	Dir   string
	Args  []string
	Stdin string
}

func (c Command) String() string {
	return "git " + strings.Join(c.Args, " ")
}

// RunResult holds the captured output of a successful invocation.
type RunResult struct {
	Stdout string
	Stderr string
}

// Runner executes git commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (RunResult, error)
}

// LocalRunner runs the git binary found on PATH.
type LocalRunner struct {
	gitPath string

	// Verbose tees the command output to the process' stdout and stderr.
	Verbose bool
}

// NewLocalRunner looks up git on PATH.
func NewLocalRunner(verbose bool) (*LocalRunner, error) {
	p, err := exec.LookPath("git")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPrecondition, "no 'git' program on path")
	}
	return &LocalRunner{gitPath: p, Verbose: verbose}, nil
}

// Run runs a git command and blocks until it exits.
func (g *LocalRunner) Run(ctx context.Context, c Command) (RunResult, error) {
	logging.LogCommand(c.Dir, "git", c.Args)

	cmd := exec.CommandContext(ctx, g.gitPath, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = os.Environ()
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}

	cmdStdout := &bytes.Buffer{}
	cmdStderr := &bytes.Buffer{}
	if g.Verbose {
		cmd.Stdout = io.MultiWriter(cmdStdout, os.Stdout)
		cmd.Stderr = io.MultiWriter(cmdStderr, os.Stderr)
	} else {
		cmd.Stdout = cmdStdout
		cmd.Stderr = cmdStderr
	}

	if err := cmd.Run(); err != nil {
		return RunResult{}, commandError(c, &GitExecError{
			Args:   c.Args,
			Err:    err,
			StdOut: cmdStdout.String(),
			StdErr: cmdStderr.String(),
		})
	}
	return RunResult{
		Stdout: cmdStdout.String(),
		Stderr: cmdStderr.String(),
	}, nil
}

// GitExecError is the failure of a single git invocation.
type GitExecError struct {
	Args   []string
	Err    error
	StdErr string
	StdOut string
}

func (e *GitExecError) Error() string {
	b := new(strings.Builder)
	b.WriteString(e.Err.Error())
	b.WriteString(": ")
	b.WriteString(strings.TrimSpace(e.StdErr))
	return b.String()
}

func commandError(c Command, execErr *GitExecError) error {
	return errors.Wrapf(execErr, errors.ErrCommand, "%s failed", c).
		WithDetail(errors.DetailStderr, execErr.StdErr).
		WithDetail(errors.DetailArgs, c.Args)
}

// NewCommandError builds the error a Runner reports for a failed invocation.
// Runners other than LocalRunner use it to stay indistinguishable from git.
func NewCommandError(c Command, cause error, stderr string) error {
	return commandError(c, &GitExecError{Args: c.Args, Err: cause, StdErr: stderr})
}

// Stderr returns the captured standard error of a failed invocation.
func Stderr(err error) string {
	s, _ := errors.GetErrorDetails(err)[errors.DetailStderr].(string)
	return s
}

// Repo binds a Runner to a working directory.
type Repo struct {
	runner Runner
	Dir    string
}

// In returns a Repo running commands in dir.
func In(r Runner, dir string) *Repo {
	return &Repo{runner: r, Dir: dir}
}

// Run runs git with args in the repo directory.
func (r *Repo) Run(ctx context.Context, args ...string) (RunResult, error) {
	return r.runner.Run(ctx, Command{Dir: r.Dir, Args: args})
}

// RunWithInput runs git with input on stdin.
func (r *Repo) RunWithInput(ctx context.Context, input string, args ...string) (RunResult, error) {
	return r.runner.Run(ctx, Command{Dir: r.Dir, Args: args, Stdin: input})
}

// Output runs git and returns its trimmed stdout.
func (r *Repo) Output(ctx context.Context, args ...string) (string, error) {
	rr, err := r.Run(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(rr.Stdout), nil
}

// Commit stages paths and commits them with a title and optional body
// paragraphs. It reports false without committing when staging left nothing
// to commit under paths.
func (r *Repo) Commit(ctx context.Context, paths []string, title string, body ...string) (bool, error) {
	if _, err := r.Run(ctx, append([]string{"add", "--"}, paths...)...); err != nil {
		return false, err
	}

	diffArgs := append([]string{"diff", "--cached", "--quiet", "--"}, paths...)
	if _, err := r.Run(ctx, diffArgs...); err == nil {
		return false, nil
	}

	args := []string{"commit", "-m", title}
	for _, paragraph := range body {
		if paragraph != "" {
			args = append(args, "-m", paragraph)
		}
	}
	if _, err := r.Run(ctx, args...); err != nil {
		return false, err
	}
	return true, nil
}

// Exists reports whether ref resolves in the repository.
func (r *Repo) Exists(ctx context.Context, ref string) bool {
	_, err := r.Run(ctx, "rev-parse", "--verify", "--quiet", fmt.Sprintf("%s^{commit}", ref))
	return err == nil
}
