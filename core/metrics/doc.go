// Package metrics defines the sink interfaces used to observe a simulation.
// Every sink records admission decisions; optional recorder interfaces cover
// completed trips, vehicle positions and fleet utilisation and are detected
// with type assertions. Sinks are built from configuration through a factory
// registry and combined with NewMultiSink when more than one is configured.
package metrics
