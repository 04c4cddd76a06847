// Package goAdmin manages the session of an administrator of the update
// server: acquiring credentials, persisting them, attaching them to every
// backend call and renewing them when the backend rejects them.
//
// An [Engine] is assembled by [Builder.Build] and is safe for concurrent use.
// It owns the in-memory session and is the only writer of the credential
// store. The identity pipeline (/auth/api/v1) and the admin pipeline
// (/admin/api/v1) read the access token from the store on every request; the
// resource methods in the api package go through [Engine.Do], which adds
// proactive refresh and latency metrics.
//
// # Session lifecycle
//
// Login stores a token pair and a profile. FetchProfile refreshes once on a
// 401 and retries; a failed refresh or a second 401 clears the session and
// yields [ErrAuthExpired]. Logout always clears the local session, even when
// the backend call fails.
//
// # Architecture boundaries
//
// The route guard (package router) and its net/http adapter (package
// middleware) depend on the Engine, never the reverse. Audit dispatch lives
// under internal/ and is exposed through the sink aliases in this package.
//
// # What this package must NOT do
//
//   - Hand a writable store to the pipelines.
//   - Return raw transport errors from Login, Logout or ChangePassword.
//   - Share state between engines; there are no package globals.
package goAdmin
