package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication and token lifecycle errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrExchangeFailed   = fmt.Errorf("authorization code exchange failed")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")

	// API and aggregation errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrNoCandidates       = fmt.Errorf("no candidate tracks available")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
