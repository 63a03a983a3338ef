// Package cli provides the interactive SubTrack command-line client.
//
// It wires configuration, the local sqlite store, the HTTP client, the auth
// and subscription services and the process-wide auth state behind a REPL.
// On start the auth state is bootstrapped from the stored session, so a
// user who logged in earlier lands straight on a working prompt.
//
// Key features:
//   - Register / Login / Logout (logout always clears the local session)
//   - Profile: whoami, refresh, profile edit, password change, account deletion
//   - Dashboard: list, add, cancel, remove, with an offline cache
//   - status: auth phase plus the stored token's subject and expiry
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and execIface for details.
package cli
