// package services defines interface Service for the upstream music API
// and the token lifecycle around it.
package services

import (
	"context"
	"fmt"

	"github.com/spinsync/spinsync/internal/models"
	"github.com/spinsync/spinsync/internal/shared"
)

// Service defines the Spotify Web API surface the backend consumes. Every
// method takes the bearer token for the acting user; acquiring and
// refreshing that token is the [TokenManager]'s job.
type Service interface {
	// Profile retrieves the authenticated user's profile.
	Profile(ctx context.Context, token string) (*models.Profile, error)

	// TopTracks retrieves the user's most played tracks for a time range
	// ("short_term", "medium_term", "long_term").
	TopTracks(ctx context.Context, token string, limit int, timeRange string) ([]models.Track, error)

	// TopArtists retrieves the user's most played artists for a time range.
	TopArtists(ctx context.Context, token string, limit int, timeRange string) ([]models.Artist, error)

	// RelatedArtists retrieves artists similar to the given artist.
	RelatedArtists(ctx context.Context, token, artistID string) ([]models.Artist, error)

	// ArtistTopTracks retrieves an artist's most popular tracks in a market.
	ArtistTopTracks(ctx context.Context, token, artistID, market string) ([]models.Track, error)

	// RecentlyPlayed retrieves the user's listening history, newest first.
	RecentlyPlayed(ctx context.Context, token string, limit int) ([]models.PlayHistory, error)

	// CreatePlaylist creates an empty playlist owned by the given user.
	CreatePlaylist(ctx context.Context, token, userID, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends track URIs to a playlist in a single request.
	AddTracks(ctx context.Context, token, playlistID string, uris []string) error
}

// UpstreamError reports a non-2xx response from the upstream API.
//
// Status is the upstream HTTP status code and Body the raw response body,
// kept so passthrough endpoints can relay what the API said. Callers decide
// whether to surface the error or substitute a fallback.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Status)
}

// Unwrap ties UpstreamError into the sentinel taxonomy so callers can match
// with errors.Is against [shared.ErrAPIRequest].
func (e *UpstreamError) Unwrap() error {
	return shared.ErrAPIRequest
}
