// Package store holds the single current state record and publishes its
// replacements.
//
// This package is internal to roster. It owns the only shared mutable
// resource in the system: the pointer to the current [state.State]. Records
// are replaced wholesale, never mutated, so readers always see a complete
// value.
//
// The main components are:
//
//   - [Store]: Interface defining snapshot, subscription and transition operations
//   - [MemoryStore]: In-memory implementation of Store with ordered delivery
//
// Deliveries are serialized: replacements are queued in transition order and
// handed to observers by one dispatcher at a time. A transition issued from
// inside an observer is queued behind the current delivery instead of
// interleaving with it.
package store
