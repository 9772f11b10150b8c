// Package state defines the immutable state record held by the roster store.
//
// This package is internal to roster. It contains only data and pure
// functions: every transition returns a new [State] built from the previous
// one and never modifies the receiver, so a caller holding an old snapshot
// always observes a stable value.
//
// The main components are:
//
//   - [State]: The complete application snapshot
//   - [Pagination]: Page size selection and page offset
//   - [User]: Opaque user payload returned by the remote data source
//   - [View]: The composed view model handed to the presentation layer
package state
