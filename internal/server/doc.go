// Package server holds the application context shared by the CLI and the
// MCP server, plus the HTTP endpoints served next to the stdio transport.
//
// ServerContext opens the configured KV backend once and wires the store,
// the contact directory, the Gmail session, the dispatch client and the
// campaign workflow on top of it. Every surface receives the same
// ServerContext explicitly; there is no package-level state.
//
// MetricsServer exposes Prometheus metrics and the health endpoints built by
// HealthChecker on a dedicated address. It is optional and never writes to
// stdout, which belongs to the stdio transport.
package server
