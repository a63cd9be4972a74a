// Package campaign drives a campaign send from a title, a message and a
// target group to a persisted history record.
//
// A Workflow resolves the group to its member contacts through the
// directory, dispatches either one personalized message per contact
// (individual mode) or a single message to every member (bulk mode), tallies
// the outcomes and writes exactly one "sent" campaign record when at least
// one recipient was reached. Preconditions are checked before any remote
// call and a violation leaves the store untouched.
//
// The package also carries the built-in message templates, campaign history
// statistics and the transient status Tracker used by interactive surfaces.
package campaign
