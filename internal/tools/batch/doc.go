// Package batch runs one operation over several ids and reports per-id
// outcomes, so a failure on one id never hides the others.
//
// Tools accept ids as a single string, a JSON array, or a JSON array encoded
// in a string (some MCP clients flatten arrays that way).
package batch
