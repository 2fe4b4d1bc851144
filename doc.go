// Package blog implements the server side of a small blog and user
// management application: JWT issuance and verification, request-level
// authentication, role gating, resource ownership policies, and the HTTP
// controllers that expose registration, login, user and post CRUD.
//
// Request flow:
//   - Every protected route runs the jwtware middleware, which extracts and
//     validates the bearer token, confirms the subject still exists in the
//     user store, and threads the resulting Identity through the request
//     context. Tokens are stateless HS256 JWTs; expiry is the only
//     invalidation mechanism, there is no revocation list.
//   - Admin routes additionally run RequireRoles, which re-reads the role
//     from the store rather than trusting the token, so role changes apply
//     without forcing a new login.
//   - Handlers that mutate owned resources consult the ownership policy
//     table (see policy.go). Posts are strict-owner; user records allow an
//     admin bypass. Existence is checked before ownership, so a missing
//     resource is always a 404 and never leaks through a 403.
//
// Persistence goes through Bun repositories (see repo_users.go and
// repo_posts.go). Email uniqueness is enforced by the store's unique index;
// the repositories translate constraint violations into ErrDuplicateEmail so
// concurrent registrations never both succeed.
package blog
