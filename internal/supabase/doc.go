// Package supabase is a small client for a hosted Supabase project.
//
// It covers the two services the sync daemon needs:
//
//   - GoTrue (/auth/v1): sign-up, password sign-in, token refresh, sign-out,
//     current user lookup and password-reset emails. The client holds the
//     current Session, persists it through an optional SessionStore and
//     notifies listeners registered with OnAuthStateChange on every
//     session transition.
//   - PostgREST (/rest/v1): a chainable query builder (From) used by the
//     repositories in internal/db. Requests carry the signed-in user's
//     access token so row-level security scopes every query to that user.
//
// Backend failures are returned as *APIError with the HTTP status, the
// backend error code and its message, unmodified.
package supabase
