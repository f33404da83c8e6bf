// Package plugin defines the capability set every benchmarked workload
// implements: the plugin boundary the measurement loop calls through.
//
// It collapses the traditional init/initrun/initworker/initbatch/run/
// finibatch/finiworker/finirun/fini/result/optswitch hook set into a
// single Go interface: a polymorphic interface
// with ordinary error returns, so plug-ins become separate packages linked
// against the engine rather than weak C symbols resolved at link time.
package plugin
