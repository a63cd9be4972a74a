// Package contact_tools provides MCP tools for the contact directory.
//
// Read tools:
//   - contacts_list: List contacts, optionally filtered by search text or group
//   - contacts_export: Export all contacts as CSV (Name,Email,Phone,Groups)
//
// Write tools (registered only when the server is not read-only):
//   - contacts_add: Add a contact
//   - contacts_update: Update fields of a contact
//   - contacts_delete: Delete one or more contacts, with per-id results
//   - contacts_import: Import contacts from CSV text
//
// Every mutation resyncs the contact counts of the affected groups.
package contact_tools
