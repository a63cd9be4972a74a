// Package store implements the local persistence layer of mailcampaign.
//
// Three record collections (contacts, groups and campaigns) are kept as JSON
// arrays under fixed keys of a durable key-value store. Every mutation reads
// the whole collection, applies the change and writes the whole collection
// back. Nothing spans collections transactionally: callers that need a
// multi-step update (for example "add a contact, then refresh group counts")
// sequence the calls themselves, see package directory.
//
// The key-value store is pluggable through the KV interface:
//   - memory: process-local map, used by tests and throwaway runs
//   - file: one file per key under a data directory
//   - sqlite: a single embedded database file (modernc.org/sqlite)
//   - valkey: a remote Valkey/Redis-compatible server
//
// A collection whose persisted value cannot be parsed is reported as
// ErrCorrupt. The store never resets data on its own; Reset is the explicit
// repair path.
package store
