// Package server provides the HTTP surface of the SpinSync backend.
//
// # Routing
//
// Routes are assembled on a chi router with request-id, panic recovery,
// request logging, and CORS middleware. The CORS layer allows credentials for
// the configured frontend origins because the SPA sends the session cookie
// cross-origin.
//
// # Authentication Flow
//
// GET /login seeds a state cookie and redirects to the Spotify consent page.
// GET /callback validates the state, exchanges the authorization code through
// the [Authenticator], stores the resulting session server-side, and hands the
// browser only an opaque session id in an HttpOnly cookie. Spotify tokens
// never reach the client.
//
// Protected routes resolve the cookie to an access token per request; a stale
// token is refreshed transparently and an unrecoverable session yields
// 401 {"error": "Unauthorized"}.
//
// # Error Mapping
//
// Sentinel errors from the service layer map onto stable HTTP statuses, and
// [services.UpstreamError] keeps the status Spotify returned. GET /me
// additionally passes the upstream response body through untouched.
package server
