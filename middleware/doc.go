// Package middleware adapts the route guard to net/http for the local
// /admin-ui/ surface.
//
// # Guards
//
//   - [Guard] runs router.Guard.BeforeEach on every request under the
//     navigation base path and stores the allow decision in the request
//     context ([DecisionFromContext]).
//
// # Architecture boundaries
//
// This package translates navigation decisions into HTTP status codes and
// Location headers. All access decisions are made by router.Guard.
//
// # What this package must NOT do
//
//   - Read or attach credentials.
//   - Call the backend.
//   - Decide access beyond what the guard returned.
package middleware
