// Package campaign_tools provides MCP tools for composing, sending and
// reviewing email campaigns through Gmail.
//
// Read tools:
//   - campaigns_list: Campaign history, newest first
//   - campaigns_stats: Totals over the history
//   - campaigns_templates: The built-in message templates
//
// Write tools:
//   - campaigns_send: Send a campaign to a group, individually or as one bulk email
//   - campaigns_send_test: Send a preview of a campaign to a single address
//   - campaigns_delete: Remove a campaign from the history
//
// Sending requires a signed-in session; see 'mailcampaign auth login'.
package campaign_tools
