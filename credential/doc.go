// Package credential persists the administrator credential record (access
// token, refresh token and user profile) across process restarts.
//
// # Storage layout
//
// Every backend stores three string values under the keys [KeyToken],
// [KeyRefreshToken] and [KeyUser]. The user profile is JSON-encoded. A user
// value that fails to decode is treated as an absent profile, never as an
// error, so a damaged profile cannot lock an operator out of the console.
//
// # Ownership
//
// Only the session engine holds a [Store]. Every other component receives a
// [Reader] and can only look at the current record.
//
// # What this package must NOT do
//
//   - Call the admin backend or interpret tokens.
//   - Leave a partially written record visible to Load.
package credential
