// Package common holds the helpers shared by the MCP tool packages:
// instrumentation of handlers, argument parsing and result rendering.
package common
