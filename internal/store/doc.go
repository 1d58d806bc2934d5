// Package store provides storage and pub/sub functionality for the view state.
//
// This package is internal to InfoPulse and holds the two process-local state
// cells, the click counter and the latest server info, together with the
// outcome of the last applied poll. Every change is published to subscribers
// so views can re-render.
//
// The main components are:
//
//   - [Store]: Interface defining state mutation and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [Snapshot]: Storage representation of the full view state
//
// The store is designed for concurrent access with proper synchronization.
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers will miss updates rather than block the system).
//
// Users of the infopulse library should not need to interact with this
// package directly. Storage is managed internally by infopulse.Board.
package store
