// OAuth2 token lifecycle for browser sessions
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/spinsync/spinsync/internal/models"
	"github.com/spinsync/spinsync/internal/repositories"
	"github.com/spinsync/spinsync/internal/shared"
)

// defaultTokenLifetime is assumed when the token endpoint omits expires_in.
const defaultTokenLifetime = time.Hour

// spotifyScopes covers playlist writes plus the playback and listening
// history reads the mix builder depends on.
var spotifyScopes = []string{
	"playlist-modify-public",
	"playlist-modify-private",
	"playlist-read-private",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"user-read-recently-played",
	"user-top-read",
}

// TokenManager owns the OAuth2 flow and the token lifetime of every session.
//
// All token state round-trips through the injected [repositories.SessionRepository];
// the manager itself is stateless, so concurrent refreshes of one session
// resolve last-write-wins at the store.
type TokenManager struct {
	config *oauth2.Config
	store  repositories.SessionRepository
	client *http.Client
	logger *log.Logger
}

// ManagerOpts contains configuration for a [TokenManager].
type ManagerOpts struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Store        repositories.SessionRepository
	HTTPClient   *http.Client    // Transport for token endpoint calls (default: oauth2's)
	Logger       *log.Logger     // Logger (default: stderr)
	Endpoint     oauth2.Endpoint // Authorization server (default: Spotify accounts service)
}

// NewTokenManager creates a manager for the given OAuth2 application.
func NewTokenManager(opts ManagerOpts) *TokenManager {
	if opts.Endpoint.AuthURL == "" {
		opts.Endpoint.AuthURL = spotifyAuthURL
	}
	if opts.Endpoint.TokenURL == "" {
		opts.Endpoint.TokenURL = spotifyTokenURL
	}
	if opts.Endpoint.AuthStyle == oauth2.AuthStyleAutoDetect {
		// Spotify wants client credentials in the Authorization header.
		// Pinning the style also keeps oauth2 from probing a failing token
		// endpoint twice, so a grant is always a single request.
		opts.Endpoint.AuthStyle = oauth2.AuthStyleInHeader
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &TokenManager{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes:       spotifyScopes,
			Endpoint:     opts.Endpoint,
		},
		store:  opts.Store,
		client: opts.HTTPClient,
		logger: opts.Logger,
	}
}

// withClient injects the manager's HTTP client into the oauth2 transport so
// token endpoint calls share it.
func (m *TokenManager) withClient(ctx context.Context) context.Context {
	if m.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClientContextKey, m.client)
}

// LoginURL builds the authorization redirect for the given CSRF state.
// The consent dialog is always shown so users can switch accounts.
func (m *TokenManager) LoginURL(state string) string {
	return m.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("show_dialog", "true"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for a token set and binds it to a
// fresh session. The relative expires_in from the token endpoint is stored
// as an absolute instant.
//
// Returns [shared.ErrExchangeFailed] when the grant is rejected or the
// response carries no access token; no session is persisted in that case.
func (m *TokenManager) Exchange(ctx context.Context, code string) (*models.Session, error) {
	token, err := m.config.Exchange(m.withClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrExchangeFailed, err)
	}

	session := &models.Session{
		ID:           shared.GenerateID(),
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    absoluteExpiry(token),
	}

	if err := m.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	return session, nil
}

// Access returns a valid access token for the session, refreshing the
// stored one when it has expired. A session with an unexpired token is
// served from the store with no network traffic; otherwise at most one
// refresh call is made, never retried.
//
// Returns [shared.ErrNotAuthenticated] when the session is missing, holds
// no token, or cannot be refreshed. A failed refresh clears the stored
// token fields so later requests fail fast.
func (m *TokenManager) Access(ctx context.Context, sessionID string) (string, error) {
	session, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if !session.Authenticated() {
		return "", shared.ErrNotAuthenticated
	}

	if !session.Expired(time.Now()) {
		return session.AccessToken, nil
	}

	if session.RefreshToken == "" {
		session.ClearTokens()
		if err := m.store.Put(ctx, session); err != nil {
			return "", fmt.Errorf("failed to clear session: %w", err)
		}
		return "", shared.ErrNotAuthenticated
	}

	refreshed, err := m.Refresh(ctx, session)
	if err != nil {
		if errors.Is(err, shared.ErrRefreshFailed) {
			return "", shared.ErrNotAuthenticated
		}
		return "", err
	}

	return refreshed.AccessToken, nil
}

// Refresh performs one refresh grant for the session and persists the
// outcome: on success the access token and absolute expiry are overwritten
// and a rotated refresh token replaces the stored one; on failure all three
// token fields are cleared and [shared.ErrRefreshFailed] is reported.
func (m *TokenManager) Refresh(ctx context.Context, session *models.Session) (*models.Session, error) {
	if session.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	source := m.config.TokenSource(m.withClient(ctx), &oauth2.Token{RefreshToken: session.RefreshToken})

	token, err := source.Token()
	if err != nil {
		m.logger.Warn("token refresh failed, clearing session", "session", session.ID, "error", err)
		session.ClearTokens()
		if putErr := m.store.Put(ctx, session); putErr != nil {
			return nil, fmt.Errorf("failed to clear session: %w", putErr)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	rotated := token.RefreshToken != "" && token.RefreshToken != session.RefreshToken

	session.AccessToken = token.AccessToken
	session.ExpiresAt = absoluteExpiry(token)
	if token.RefreshToken != "" {
		session.RefreshToken = token.RefreshToken
	}

	if err := m.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	m.logger.Debug("access token refreshed", "session", session.ID, "rotated", rotated)
	return session, nil
}

// RefreshSession forces a refresh grant for the given session ID.
//
// Unlike [TokenManager.Access] the failure modes stay distinct: a missing
// session reports [shared.ErrNotAuthenticated], a session without a refresh
// token reports [shared.ErrNoRefreshToken], and a rejected grant reports
// [shared.ErrRefreshFailed].
func (m *TokenManager) RefreshSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if session.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	return m.Refresh(ctx, session)
}

// Logout deletes the session record outright.
func (m *TokenManager) Logout(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID)
}

// absoluteExpiry converts a token's expiry to the absolute instant stored
// with the session, assuming the default lifetime when the endpoint sent no
// expires_in.
func absoluteExpiry(token *oauth2.Token) time.Time {
	if token.Expiry.IsZero() {
		return time.Now().Add(defaultTokenLifetime)
	}
	return token.Expiry
}
