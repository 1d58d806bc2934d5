// Package poller provides timer-driven HTTP polling for InfoPulse.
//
// This package is internal to InfoPulse and handles the periodic polling of
// the info endpoint. A single ticker owned by the [Scheduler] drives requests;
// overlapping requests are governed by a [Policy].
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with an optional timeout and a body size limit
//   - [Scheduler]: Owns the ticker and issues one request per tick
//   - [Result]: Raw outcome of one request, tagged with its issue sequence
//
// Users of the infopulse library should not need to interact with this
// package directly. Configuration is done through the main infopulse package.
package poller
