// Package testutil provides fakes and fixtures for testing vendorsync
// components without touching the real disk or a real git binary.
//
// Key components:
//   - FakeGit: scripted gitutil.Runner recording every invocation
//   - NewMemFS: afero-backed types.FS with file helpers
//   - Fixtures: version header and DEPS file builders
package testutil
