// Package scheduler owns the fleet roster and the pending request queue. It
// admits due requests one at a time against the live fleet, commits accepted
// legs to vehicles and advances every vehicle when the clock ticks.
//
// All methods are safe for concurrent use; they are serialised internally.
// During Advance each vehicle is moved by its own goroutine.
package scheduler
