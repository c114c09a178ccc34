// Package manifest describes the nested sub-dependencies of the vendored
// tree and resolves their pinned commits.
//
// Two inputs are involved. The dependency table compiled into vendorsync
// (embedded/dependencies.toml) lists which nested dependencies to sync, where
// they live and how the vendored ignore file must be patched for each. The
// upstream DEPS file inside the vendored tree supplies the repo@commit pin of
// every dependency; it is read with a small parser for the literal subset of
// Python that DEPS files are written in, never executed.
package manifest
