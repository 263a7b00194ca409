// Package notify raises an alert when dataset refreshes keep failing and
// delivers it to Slack, Teams, or generic HTTP webhooks. The Engine is a
// refresh.Observer; a successful cycle resolves the alert.
package notify
