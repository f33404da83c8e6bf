// Package plugins is the parent of the built-in plugin.Benchmark
// implementations (noop, spin, sleep) used by the engine's own tests and by
// the S1/S2/S4 end-to-end scenarios. Third-party plug-ins live outside this
// module entirely; these three exist purely to give the measurement loop
// something concrete to drive without an external dependency.
package plugins
