// Package services implements the Spotify Web API client and the OAuth2
// token lifecycle behind every authenticated request.
//
// # Service Interface
//
// [Service] is the API surface the rest of the backend consumes. Every
// method takes the bearer token explicitly, which keeps implementations
// stateless and lets tests substitute fakes per call.
//
// # Spotify Implementation
//
// [SpotifyClient] performs authenticated requests with a shared outbound
// rate limiter and a per-request timeout. It never retries; a non-2xx
// response surfaces as [*UpstreamError] carrying the upstream status and
// body, and callers decide whether to surface or fall back.
//
// # Token Lifecycle
//
// [TokenManager] owns the authorization code flow and token refresh. All
// token state lives in the injected session store. [TokenManager.Access] is
// the hot path: a stored unexpired token is returned with zero network
// traffic, an expired one triggers at most one refresh grant, and a failed
// refresh clears the stored tokens so the session fails fast afterward.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : no session, no token, or refresh exhausted
//   - [shared.ErrExchangeFailed] : authorization code rejected
//   - [shared.ErrRefreshFailed] : refresh grant rejected, tokens cleared
//   - [shared.ErrNoRefreshToken] : refresh requested for a session without one
//   - [shared.ErrAPIRequest] : upstream returned non-2xx (match [*UpstreamError] with errors.As)
package services
