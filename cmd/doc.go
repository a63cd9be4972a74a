// Package cmd implements the command-line interface for mailcampaign.
//
// This package provides the following commands:
//   - auth: Sign in to Gmail, sign out, show the session
//   - contacts: Manage the contact directory, import and export CSV
//   - groups: Manage contact groups
//   - campaigns: Send campaigns and test emails, browse the history
//   - store: Repair local storage
//   - serve: Start the MCP server to provide tools for AI assistants
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
