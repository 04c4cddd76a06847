// Package jwt reads the claims carried by admin access tokens.
//
// The console never mints tokens; it only inspects the ones issued by the
// identity backend to learn the principal and the expiry instant. When a
// verification key is configured the signature is checked as well, otherwise
// claims are decoded without verification and must be treated as hints only.
//
// # What this package must NOT do
//
//   - Make authorization decisions. The backend remains the authority.
//   - Hold tokens. Callers pass the token string on every call.
package jwt
