// Package api exposes the admin backend resources (applications, keys,
// channels, versions, GitHub bindings and statistics) as typed methods.
//
// Every call goes through a Doer, normally the session engine, so requests
// carry the current access token and pass through the admin pipeline's
// envelope classification.
//
// # Architecture boundaries
//
// The package knows resource paths and payload shapes. It does not know about
// credentials, refresh or notifications; those belong to the Doer.
//
// # What this package must NOT do
//
//   - Hold or read credentials.
//   - Retry requests; a 401 is returned to the caller unchanged.
//   - Interpret permission tags.
package api
