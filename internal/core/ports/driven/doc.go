// Package driven declares what the core needs from the outside world:
// pair and posting persistence, configuration values, transcript
// normalisers, post-processors and job bookkeeping.
//
// Adapters under internal/adapters/driven and the normaliser and
// postprocessor packages implement these interfaces. This package may
// import domain and nothing else from qamine.
package driven
