// Package client is the HTTP transport to the SubTrack REST API.
//
// # Overview
//
// HTTPClient wraps one *http.Client whose transport is a small chain of
// interceptors:
//
//  1. requestIDTransport stamps X-Request-ID on every request.
//  2. bearerTransport reads the session token and, when present, sends it as
//     "Authorization: Bearer <token>". Without a token the request goes out
//     anonymous.
//  3. sessionGuardTransport watches for 401 answers and clears the local
//     session before handing the response back. This is the only place an
//     expired or revoked session is noticed; the client never inspects token
//     expiry itself.
//
// The verbs Get, Post, Put and Delete encode the body as JSON, decode 2xx
// answers into the caller's value and turn everything else into *Error.
//
// # Error Handling
//
// *Error carries a user-facing Message chosen in this order: the server's
// "message" field, its "error" field, "Server error" when a response came
// back without either, "Network error. Please check your connection." when
// no response arrived, and the raw error text when the request could not
// even be built. Match the category with errors.Is against ErrUnauthorized,
// ErrServer, ErrNetwork, ErrRequest, ErrDecode or ErrRejected.
//
// Nothing is retried.
package client
