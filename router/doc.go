// Package router holds the admin console route table and the guard that runs
// before every navigation.
//
// # Navigation decisions
//
// [Guard.BeforeEach] resolves a path against the [Table], re-reads the session
// state and returns a [Decision]: allow, redirect (to the login route or the
// landing route) or deny. A deny is only returned when redirecting would loop
// back to the same route.
//
// # Architecture boundaries
//
// The guard consults a [Session] (normally *goAdmin.Engine) and never touches
// credentials or the network itself. Rendering the allowed route is the
// caller's job.
//
// # What this package must NOT do
//
//   - Write the credential store.
//   - Interpret roles; permission tags are checked through Session.
//   - Retry profile fetches. The engine owns the refresh-and-retry bound.
package router
