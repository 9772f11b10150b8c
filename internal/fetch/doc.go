// Package fetch turns query changes into remote requests and applies their
// results to the store.
//
// This package is internal to roster. It owns the only suspension point of
// the system: the call to the remote data source. Every other operation is
// synchronous.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with connection pooling and size limits
//   - [Source]: Abstraction over the remote data source; [HTTPSource] is the default
//   - [Orchestrator]: Dispatches one request per query and discards superseded results
//   - [Metrics]: Prometheus collectors for dispatched, applied and dropped fetches
//
// Users of the roster library should not need to interact with this package
// directly. Configuration is done through the main roster package.
package fetch
