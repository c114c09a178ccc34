// Package pipeline runs an ordered list of steps against one shared,
// mutable context value.
//
// Steps run strictly in declaration order. Before each step its Skip
// predicate is consulted; a skipped step's action never runs. The first
// action to return an error aborts the whole run: no later step executes and
// nothing that already ran is undone. The returned error is a *StepError
// naming the failing step.
//
// An action may rename its own step through the Task it receives, for
// example to show the version it resolved. Titles are only reported; they
// never influence control flow.
package pipeline
