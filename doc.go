// Package auth provides the authentication and authorization subsystem for
// the tours platform: credential storage over a Bun-backed user repository,
// JWT session issuance and verification, role gates, and the password
// reset/change lifecycle.
//
// Credential lifecycle:
//   - Signup, login, forgot/reset password, and authenticated password change
//     are modeled as command handlers (RegisterUserHandler,
//     InitializePasswordResetHandler, FinalizePasswordResetHandler,
//     UpdatePasswordHandler). Each composes the hasher, the reset-token
//     codec, the token service, and the Users repository.
//   - Reset tokens are one-time and short-lived. Only a SHA-256 fingerprint
//     of the token is persisted; the opaque value travels in the reset email
//     and nowhere else, so a leaked database cannot forge a reset.
//
// Request gates:
//   - RouteAuthenticator.Protected extracts a bearer token (Authorization
//     header first, session cookie second), validates it, loads the current
//     user, and rejects sessions issued before the user's last password
//     change. Optional performs the same steps but admits anonymously on any
//     failure. RequireRoles composes after Protected and never touches the
//     store again.
//
// Sessions are stateless HS256 JWTs. There is no server-side revocation
// list: a password change invalidates older tokens through the issued-at
// comparison in the gate, and soft-deactivated users drop out because the
// gate's user lookup applies the same active filter as every other default
// lookup.
package auth
