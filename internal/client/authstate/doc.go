// Package authstate holds the process-wide authentication state of the
// client: the signed-in user, whether the initial bootstrap is still
// running, and whether requests will be authenticated.
//
// A Manager is created once per application and passed to whatever needs
// it. Its life cycle is a small state machine:
//
//	uninitialized → loading → tentative | authenticated | anonymous
//
// tentative means a cached user was accepted without asking the server.
// Login, Register and a successful RefreshUser move to authenticated;
// Logout, DeleteAccount and a failed RefreshUser move to anonymous.
//
// Operations are not serialised against each other. Two overlapping calls
// (a logout during a login, say) both run to completion and the one that
// finishes last decides the state.
package authstate
