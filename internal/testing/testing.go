// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/spinsync/spinsync/internal/models"
)

// MockService is a configurable test double for [services.Service]. Unset
// function fields return zero values.
type MockService struct {
	ProfileFunc         func(ctx context.Context, token string) (*models.Profile, error)
	TopTracksFunc       func(ctx context.Context, token string, limit int, timeRange string) ([]models.Track, error)
	TopArtistsFunc      func(ctx context.Context, token string, limit int, timeRange string) ([]models.Artist, error)
	RelatedArtistsFunc  func(ctx context.Context, token, artistID string) ([]models.Artist, error)
	ArtistTopTracksFunc func(ctx context.Context, token, artistID, market string) ([]models.Track, error)
	RecentlyPlayedFunc  func(ctx context.Context, token string, limit int) ([]models.PlayHistory, error)
	CreatePlaylistFunc  func(ctx context.Context, token, userID, name, description string, public bool) (*models.Playlist, error)
	AddTracksFunc       func(ctx context.Context, token, playlistID string, uris []string) error
}

func (m *MockService) Profile(ctx context.Context, token string) (*models.Profile, error) {
	if m.ProfileFunc == nil {
		return &models.Profile{}, nil
	}
	return m.ProfileFunc(ctx, token)
}

func (m *MockService) TopTracks(ctx context.Context, token string, limit int, timeRange string) ([]models.Track, error) {
	if m.TopTracksFunc == nil {
		return nil, nil
	}
	return m.TopTracksFunc(ctx, token, limit, timeRange)
}

func (m *MockService) TopArtists(ctx context.Context, token string, limit int, timeRange string) ([]models.Artist, error) {
	if m.TopArtistsFunc == nil {
		return nil, nil
	}
	return m.TopArtistsFunc(ctx, token, limit, timeRange)
}

func (m *MockService) RelatedArtists(ctx context.Context, token, artistID string) ([]models.Artist, error) {
	if m.RelatedArtistsFunc == nil {
		return nil, nil
	}
	return m.RelatedArtistsFunc(ctx, token, artistID)
}

func (m *MockService) ArtistTopTracks(ctx context.Context, token, artistID, market string) ([]models.Track, error) {
	if m.ArtistTopTracksFunc == nil {
		return nil, nil
	}
	return m.ArtistTopTracksFunc(ctx, token, artistID, market)
}

func (m *MockService) RecentlyPlayed(ctx context.Context, token string, limit int) ([]models.PlayHistory, error) {
	if m.RecentlyPlayedFunc == nil {
		return nil, nil
	}
	return m.RecentlyPlayedFunc(ctx, token, limit)
}

func (m *MockService) CreatePlaylist(ctx context.Context, token, userID, name, description string, public bool) (*models.Playlist, error) {
	if m.CreatePlaylistFunc == nil {
		return &models.Playlist{}, nil
	}
	return m.CreatePlaylistFunc(ctx, token, userID, name, description, public)
}

func (m *MockService) AddTracks(ctx context.Context, token, playlistID string, uris []string) error {
	if m.AddTracksFunc == nil {
		return nil
	}
	return m.AddTracksFunc(ctx, token, playlistID, uris)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
