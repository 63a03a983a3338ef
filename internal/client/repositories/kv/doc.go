// Package kv implements the local key/value store backed by the "kv" table
// of the client sqlite database.
//
// All operations are idempotent: deleting an absent key or clearing an empty
// table succeeds. Errors from the driver are wrapped with the operation and
// key for context.
package kv
