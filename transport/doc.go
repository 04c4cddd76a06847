// Package transport implements the request pipeline shared by every call the
// console makes to the backend.
//
// # Stages
//
//   - Outbound: attach "Authorization: Bearer <token>" when the credential
//     reader holds an access token, plus X-Request-ID and User-Agent.
//   - Inbound: classify the response as envelope success, envelope failure,
//     raw success or transport failure. Failures are reported to a [Notifier]
//     before the error is returned.
//
// Two pipelines are normally built: one for identity calls (/auth/api/v1) and
// one for admin resources (/admin/api/v1).
//
// # Architecture boundaries
//
// The pipeline only reads credentials through [credential.Reader]. Renewing an
// expired token is the session engine's job; the pipeline reports the 401 via
// [IsUnauthorized] and stops there.
//
// # What this package must NOT do
//
//   - Write to the credential store.
//   - Retry requests.
//   - Interpret payloads beyond the {code, message, data} envelope.
package transport
