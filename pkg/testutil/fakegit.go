package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/arthur-debert/vendorsync/pkg/gitutil"
)

// Handler produces the result of a scripted git invocation.
type Handler func(cmd gitutil.Command) (gitutil.RunResult, error)

// Expectation scripts the response to commands whose arguments start with
// a given prefix.
type Expectation struct {
	prefix  []string
	dir     string
	handler Handler
}

// In restricts the expectation to commands run in dir.
func (e *Expectation) In(dir string) *Expectation {
	e.dir = dir
	return e
}

// Return makes matching commands succeed with stdout.
func (e *Expectation) Return(stdout string) *Expectation {
	e.handler = func(gitutil.Command) (gitutil.RunResult, error) {
		return gitutil.RunResult{Stdout: stdout}, nil
	}
	return e
}

// Fail makes matching commands exit non-zero with stderr.
func (e *Expectation) Fail(stderr string) *Expectation {
	e.handler = func(cmd gitutil.Command) (gitutil.RunResult, error) {
		return gitutil.RunResult{}, gitutil.NewCommandError(cmd, fmt.Errorf("exit status 1"), stderr)
	}
	return e
}

// Do runs h for matching commands, typically to simulate side effects.
func (e *Expectation) Do(h Handler) *Expectation {
	e.handler = h
	return e
}

func (e *Expectation) matches(cmd gitutil.Command) bool {
	if e.dir != "" && e.dir != cmd.Dir {
		return false
	}
	if len(cmd.Args) < len(e.prefix) {
		return false
	}
	for i, a := range e.prefix {
		if cmd.Args[i] != a {
			return false
		}
	}
	return true
}

// FakeGit is a gitutil.Runner that answers from scripted expectations.
// Unscripted commands succeed with no output. When several expectations
// match, the most recently added wins.
type FakeGit struct {
	mu           sync.Mutex
	expectations []*Expectation
	calls        []gitutil.Command
}

// NewFakeGit returns a FakeGit with no expectations.
func NewFakeGit() *FakeGit {
	return &FakeGit{}
}

// On scripts commands starting with args.
func (f *FakeGit) On(args ...string) *Expectation {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := &Expectation{prefix: args}
	e.Return("")
	f.expectations = append(f.expectations, e)
	return e
}

// Run implements gitutil.Runner.
func (f *FakeGit) Run(_ context.Context, cmd gitutil.Command) (gitutil.RunResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	var handler Handler
	for i := len(f.expectations) - 1; i >= 0; i-- {
		if f.expectations[i].matches(cmd) {
			handler = f.expectations[i].handler
			break
		}
	}
	f.mu.Unlock()

	if handler == nil {
		return gitutil.RunResult{}, nil
	}
	return handler(cmd)
}

// Calls returns every command run so far.
func (f *FakeGit) Calls() []gitutil.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gitutil.Command(nil), f.calls...)
}

// Commands returns every command run so far as "git ..." strings.
func (f *FakeGit) Commands() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// CallsTo returns the commands whose arguments start with args.
func (f *FakeGit) CallsTo(args ...string) []gitutil.Command {
	want := &Expectation{prefix: args}
	var out []gitutil.Command
	for _, c := range f.Calls() {
		if want.matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// Ran reports whether any command starting with args was run.
func (f *FakeGit) Ran(args ...string) bool {
	return len(f.CallsTo(args...)) > 0
}

// Index returns the position of the first command starting with args, or -1.
func (f *FakeGit) Index(args ...string) int {
	want := &Expectation{prefix: args}
	for i, c := range f.Calls() {
		if want.matches(c) {
			return i
		}
	}
	return -1
}

// Arg returns the value following flag in cmd, or "".
func Arg(cmd gitutil.Command, flag string) string {
	for i, a := range cmd.Args {
		if a == flag && i+1 < len(cmd.Args) {
			return cmd.Args[i+1]
		}
		if strings.HasPrefix(a, flag+"=") {
			return strings.TrimPrefix(a, flag+"=")
		}
	}
	return ""
}
