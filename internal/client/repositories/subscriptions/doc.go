// Package subscriptions implements the dashboard cache backed by the
// "subscriptions" table of the client sqlite database.
//
// Each row keeps the full subscription as JSON in payload; id, user_id and
// status are duplicated into columns for lookups.
package subscriptions
