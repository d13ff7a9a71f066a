// Package toolchain bundles the utilities shared by the ISS4E research
// projects into one installable distribution.
//
// # Architecture
//
// The distribution is structured into several sub-packages:
//   - dist: the export manifest model describing what each sub-package
//     makes public
//   - config: cascading configuration discovery and logging setup
//   - logutil: logrus conventions shared by all projects
//   - progress: throughput reporting for long-running batch jobs
//   - timeutil: date ranges and UTC helpers
//   - seriesmath: differentiation and smoothing of timestamped samples
//   - lookahead: order-preserving background prefetching
//   - walker: pull-based file tree traversal
//   - seriesdb: streaming TimescaleDB measurement access
//
// Every sub-package declares its public surface in the distribution
// manifest returned by Manifest; names outside a manifest are
// implementation detail and may change between releases.
//
// Example usage:
//
//	exports, err := toolchain.Manifest().ListExports("seriesdb")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, name := range exports {
//	    fmt.Println(name)
//	}
package toolchain
