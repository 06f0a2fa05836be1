// Spotify Web API implementation of [Service]
//
// Response shapes follow https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/spinsync/spinsync/internal/models"
	"github.com/spinsync/spinsync/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// maxErrorBody caps how much of an upstream error response is retained.
const maxErrorBody = 64 << 10

// SpotifyClient implements [Service] against the Spotify Web API.
//
// Every request waits on a shared rate limiter and runs under a per-request
// timeout. Non-2xx responses surface as [*UpstreamError]; the client never
// retries.
type SpotifyClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// ClientOpts contains configuration for a [SpotifyClient].
type ClientOpts struct {
	BaseURL    string        // API base URL (default: Spotify production)
	HTTPClient *http.Client  // Transport (default: http.DefaultClient)
	Timeout    time.Duration // Per-request timeout (default: 10s)
	RateLimit  float64       // Outbound requests per second (default: 5)
}

// NewSpotifyClient creates a Spotify Web API client.
func NewSpotifyClient(opts ClientOpts) *SpotifyClient {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	return &SpotifyClient{
		baseURL: opts.BaseURL,
		client:  opts.HTTPClient,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		timeout: opts.Timeout,
	}
}

// do performs an authenticated request against the API and decodes the JSON
// response into result when result is non-nil.
//
// A non-2xx response becomes [*UpstreamError] carrying the upstream status
// and body. Timeouts map to UpstreamError with status 504 so every failure
// at this boundary carries a status.
func (s *SpotifyClient) do(ctx context.Context, method, token, endpoint string, body, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", shared.ErrTimeout, &UpstreamError{Status: http.StatusGatewayTimeout, Body: "upstream timeout"})
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &UpstreamError{Status: resp.StatusCode, Body: string(data)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// clampLimit bounds a page size to the API's 1..50 window, defaulting to 20.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 50 {
		return 50
	}
	return limit
}

// Profile retrieves the current authenticated user's profile.
func (s *SpotifyClient) Profile(ctx context.Context, token string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.do(ctx, "GET", token, "/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// TopTracks retrieves the user's most played tracks for the given time range.
func (s *SpotifyClient) TopTracks(ctx context.Context, token string, limit int, timeRange string) ([]models.Track, error) {
	if timeRange == "" {
		timeRange = "medium_term"
	}

	endpoint := fmt.Sprintf("/me/top/tracks?limit=%d&time_range=%s", clampLimit(limit), url.QueryEscape(timeRange))

	var response struct {
		Items []models.Track `json:"items"`
	}
	if err := s.do(ctx, "GET", token, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return response.Items, nil
}

// TopArtists retrieves the user's most played artists for the given time range.
func (s *SpotifyClient) TopArtists(ctx context.Context, token string, limit int, timeRange string) ([]models.Artist, error) {
	if timeRange == "" {
		timeRange = "medium_term"
	}

	endpoint := fmt.Sprintf("/me/top/artists?limit=%d&time_range=%s", clampLimit(limit), url.QueryEscape(timeRange))

	var response struct {
		Items []models.Artist `json:"items"`
	}
	if err := s.do(ctx, "GET", token, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return response.Items, nil
}

// RelatedArtists retrieves artists similar to the given artist.
func (s *SpotifyClient) RelatedArtists(ctx context.Context, token, artistID string) ([]models.Artist, error) {
	endpoint := fmt.Sprintf("/artists/%s/related-artists", artistID)

	var response struct {
		Artists []models.Artist `json:"artists"`
	}
	if err := s.do(ctx, "GET", token, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return response.Artists, nil
}

// ArtistTopTracks retrieves an artist's most popular tracks in the given market.
func (s *SpotifyClient) ArtistTopTracks(ctx context.Context, token, artistID, market string) ([]models.Track, error) {
	if market == "" {
		market = "US"
	}

	endpoint := fmt.Sprintf("/artists/%s/top-tracks?market=%s", artistID, url.QueryEscape(market))

	var response struct {
		Tracks []models.Track `json:"tracks"`
	}
	if err := s.do(ctx, "GET", token, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return response.Tracks, nil
}

// RecentlyPlayed retrieves the user's listening history, newest first.
func (s *SpotifyClient) RecentlyPlayed(ctx context.Context, token string, limit int) ([]models.PlayHistory, error) {
	endpoint := fmt.Sprintf("/me/player/recently-played?limit=%d", clampLimit(limit))

	var response struct {
		Items []models.PlayHistory `json:"items"`
	}
	if err := s.do(ctx, "GET", token, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return response.Items, nil
}

// CreatePlaylist creates an empty playlist owned by the given user.
func (s *SpotifyClient) CreatePlaylist(ctx context.Context, token, userID, name, description string, public bool) (*models.Playlist, error) {
	body := struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Public      bool   `json:"public"`
	}{name, description, public}

	endpoint := fmt.Sprintf("/users/%s/playlists", userID)

	var playlist models.Playlist
	if err := s.do(ctx, "POST", token, endpoint, body, &playlist); err != nil {
		return nil, err
	}

	return &playlist, nil
}

// AddTracks appends the given track URIs to a playlist in a single request.
func (s *SpotifyClient) AddTracks(ctx context.Context, token, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return fmt.Errorf("%w: no track URIs provided", shared.ErrInvalidArgument)
	}
	if len(uris) > 100 {
		return fmt.Errorf("%w: maximum 100 track URIs allowed", shared.ErrInvalidArgument)
	}

	body := struct {
		URIs []string `json:"uris"`
	}{uris}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	return s.do(ctx, "POST", token, endpoint, body, nil)
}
