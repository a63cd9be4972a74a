// Package group_tools provides MCP tools for contact groups.
//
// Read tools: groups_list, groups_members.
// Write tools: groups_add, groups_update, groups_delete, groups_resync.
//
// Deleting a group strips it from every contact but keeps the contacts.
package group_tools
