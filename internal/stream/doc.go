// Package stream provides the synchronous stream primitives roster builds
// its view model from.
//
// This package is internal to roster. Values flow by plain function calls on
// the goroutine that delivers a store transition; nothing here starts its
// own goroutine except the [Debouncer] timer.
//
// The main components are:
//
//   - [Subject]: Replay-latest, distinct-until-changed value holder with observers
//   - [Projection]: A change-suppressed stream over one part of a source value
//   - [Combined]: Fan-in of several inputs, emitted once per transition boundary
//   - [Debouncer]: Trailing-edge debounce with duplicate suppression
//   - [Channel]: Latest-wins channel adapter for slow consumers (SSE)
package stream
