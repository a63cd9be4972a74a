// Package session_tools exposes the Gmail sign-in state to MCP clients.
// Signing in and out stays on the CLI because it needs a browser.
package session_tools
