// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - AdmissionEvent: outcome of one admission decision
//   - TripCompletedEvent: a vehicle finished its active leg
//   - VehicleMovedEvent: a vehicle position after a tick
package events
