// Package resources provides read-only MCP resources:
//
//   - campaigns://history: the campaign history, newest first, with totals
//   - session://profile: the signed-in Gmail identity
package resources
