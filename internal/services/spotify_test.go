package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spinsync/spinsync/internal/shared"
)

// newTestClient points a SpotifyClient at a fake upstream. The rate limit is
// raised so tests never wait on the limiter.
func newTestClient(t *testing.T, handler http.Handler) *SpotifyClient {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return NewSpotifyClient(ClientOpts{
		BaseURL:   ts.URL,
		Timeout:   2 * time.Second,
		RateLimit: 1000,
	})
}

func TestSpotifyClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Service Interface", func(t *testing.T) {
		var _ Service = NewSpotifyClient(ClientOpts{})
	})

	t.Run("Profile", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me" {
				t.Errorf("expected path /me, got %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("expected bearer token header, got %q", got)
			}
			fmt.Fprint(w, `{"id": "user123", "display_name": "Test User", "country": "SE"}`)
		}))

		profile, err := client.Profile(ctx, "tok")
		if err != nil {
			t.Fatalf("Profile() error = %v", err)
		}
		if profile.ID != "user123" {
			t.Errorf("expected user123, got %s", profile.ID)
		}
		if profile.Market() != "SE" {
			t.Errorf("expected market SE, got %s", profile.Market())
		}
	})

	t.Run("TopTracks", func(t *testing.T) {
		var query string
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/top/tracks" {
				t.Errorf("expected path /me/top/tracks, got %s", r.URL.Path)
			}
			query = r.URL.RawQuery
			fmt.Fprint(w, `{"items": [{"id": "t1", "uri": "spotify:track:t1", "name": "Song One"}]}`)
		}))

		tracks, err := client.TopTracks(ctx, "tok", 5, "short_term")
		if err != nil {
			t.Fatalf("TopTracks() error = %v", err)
		}
		if len(tracks) != 1 || tracks[0].ID != "t1" {
			t.Errorf("unexpected tracks: %+v", tracks)
		}
		if query != "limit=5&time_range=short_term" {
			t.Errorf("unexpected query: %s", query)
		}
	})

	t.Run("TopTracks clamps limit and defaults time range", func(t *testing.T) {
		var query string
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.RawQuery
			fmt.Fprint(w, `{"items": []}`)
		}))

		if _, err := client.TopTracks(ctx, "tok", 0, ""); err != nil {
			t.Fatalf("TopTracks() error = %v", err)
		}
		if query != "limit=20&time_range=medium_term" {
			t.Errorf("unexpected query: %s", query)
		}

		if _, err := client.TopTracks(ctx, "tok", 500, "long_term"); err != nil {
			t.Fatalf("TopTracks() error = %v", err)
		}
		if query != "limit=50&time_range=long_term" {
			t.Errorf("unexpected query: %s", query)
		}
	})

	t.Run("TopArtists", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/top/artists" {
				t.Errorf("expected path /me/top/artists, got %s", r.URL.Path)
			}
			fmt.Fprint(w, `{"items": [{"id": "a1", "name": "Artist One"}, {"id": "a2", "name": "Artist Two"}]}`)
		}))

		artists, err := client.TopArtists(ctx, "tok", 10, "medium_term")
		if err != nil {
			t.Fatalf("TopArtists() error = %v", err)
		}
		if len(artists) != 2 || artists[0].ID != "a1" {
			t.Errorf("unexpected artists: %+v", artists)
		}
	})

	t.Run("RelatedArtists", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/artists/a1/related-artists" {
				t.Errorf("expected related-artists path, got %s", r.URL.Path)
			}
			fmt.Fprint(w, `{"artists": [{"id": "r1", "name": "Related One"}]}`)
		}))

		artists, err := client.RelatedArtists(ctx, "tok", "a1")
		if err != nil {
			t.Fatalf("RelatedArtists() error = %v", err)
		}
		if len(artists) != 1 || artists[0].ID != "r1" {
			t.Errorf("unexpected artists: %+v", artists)
		}
	})

	t.Run("ArtistTopTracks defaults market", func(t *testing.T) {
		var query string
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/artists/a1/top-tracks" {
				t.Errorf("expected top-tracks path, got %s", r.URL.Path)
			}
			query = r.URL.RawQuery
			fmt.Fprint(w, `{"tracks": [{"id": "t9", "uri": "spotify:track:t9", "name": "Popular"}]}`)
		}))

		tracks, err := client.ArtistTopTracks(ctx, "tok", "a1", "")
		if err != nil {
			t.Fatalf("ArtistTopTracks() error = %v", err)
		}
		if len(tracks) != 1 || tracks[0].ID != "t9" {
			t.Errorf("unexpected tracks: %+v", tracks)
		}
		if query != "market=US" {
			t.Errorf("expected default market US, got query %s", query)
		}
	})

	t.Run("RecentlyPlayed", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/player/recently-played" {
				t.Errorf("expected recently-played path, got %s", r.URL.Path)
			}
			fmt.Fprint(w, `{"items": [{"track": {"id": "t1", "name": "Song"}, "played_at": "2024-01-01T00:00:00Z"}]}`)
		}))

		history, err := client.RecentlyPlayed(ctx, "tok", 5)
		if err != nil {
			t.Fatalf("RecentlyPlayed() error = %v", err)
		}
		if len(history) != 1 || history[0].Track.ID != "t1" {
			t.Errorf("unexpected history: %+v", history)
		}
		if history[0].PlayedAt != "2024-01-01T00:00:00Z" {
			t.Errorf("unexpected played_at: %s", history[0].PlayedAt)
		}
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != "POST" {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if r.URL.Path != "/users/user123/playlists" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}

			var body struct {
				Name        string `json:"name"`
				Description string `json:"description"`
				Public      bool   `json:"public"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Name != "SpinSync Playlist" || body.Public {
				t.Errorf("unexpected body: %+v", body)
			}

			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id": "pl1", "name": "SpinSync Playlist", "external_urls": {"spotify": "https://open.spotify.com/playlist/pl1"}}`)
		}))

		playlist, err := client.CreatePlaylist(ctx, "tok", "user123", "SpinSync Playlist", "A playlist made for you!", false)
		if err != nil {
			t.Fatalf("CreatePlaylist() error = %v", err)
		}
		if playlist.ID != "pl1" {
			t.Errorf("expected playlist pl1, got %s", playlist.ID)
		}
		if playlist.WebURL() != "https://open.spotify.com/playlist/pl1" {
			t.Errorf("unexpected web URL: %s", playlist.WebURL())
		}
	})

	t.Run("AddTracks", func(t *testing.T) {
		var gotURIs []string
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/pl1/tracks" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}

			var body struct {
				URIs []string `json:"uris"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			gotURIs = body.URIs

			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"snapshot_id": "snap1"}`)
		}))

		uris := []string{"spotify:track:t1", "spotify:track:t2"}
		if err := client.AddTracks(ctx, "tok", "pl1", uris); err != nil {
			t.Fatalf("AddTracks() error = %v", err)
		}
		if len(gotURIs) != 2 || gotURIs[0] != "spotify:track:t1" {
			t.Errorf("unexpected uris sent: %v", gotURIs)
		}
	})

	t.Run("AddTracks rejects empty input", func(t *testing.T) {
		client := NewSpotifyClient(ClientOpts{RateLimit: 1000})

		if err := client.AddTracks(ctx, "tok", "pl1", nil); err == nil {
			t.Error("expected error for empty URI list")
		}

		tooMany := make([]string, 101)
		for i := range tooMany {
			tooMany[i] = fmt.Sprintf("spotify:track:t%d", i)
		}
		if err := client.AddTracks(ctx, "tok", "pl1", tooMany); err == nil {
			t.Error("expected error for oversized URI list")
		}
	})

	t.Run("non-2xx surfaces as UpstreamError", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error": {"status": 403, "message": "Insufficient client scope"}}`)
		}))

		_, err := client.Profile(ctx, "tok")
		if err == nil {
			t.Fatal("expected error")
		}

		var upstream *UpstreamError
		if !errors.As(err, &upstream) {
			t.Fatalf("expected UpstreamError, got %T: %v", err, err)
		}
		if upstream.Status != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", upstream.Status)
		}
		if !strings.Contains(upstream.Body, "Insufficient client scope") {
			t.Errorf("expected upstream body preserved, got %s", upstream.Body)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Error("expected UpstreamError to match shared.ErrAPIRequest")
		}
	})

	t.Run("timeout maps to status 504", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			fmt.Fprint(w, `{}`)
		}))
		t.Cleanup(ts.Close)

		client := NewSpotifyClient(ClientOpts{
			BaseURL:   ts.URL,
			Timeout:   50 * time.Millisecond,
			RateLimit: 1000,
		})

		_, err := client.Profile(ctx, "tok")
		var upstream *UpstreamError
		if !errors.As(err, &upstream) {
			t.Fatalf("expected UpstreamError, got %T: %v", err, err)
		}
		if upstream.Status != http.StatusGatewayTimeout {
			t.Errorf("expected status 504, got %d", upstream.Status)
		}
		if !errors.Is(err, shared.ErrTimeout) {
			t.Error("expected timeout classification")
		}
	})

	t.Run("malformed response body", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `not json`)
		}))

		_, err := client.Profile(ctx, "tok")
		if err == nil || !strings.Contains(err.Error(), "decode") {
			t.Errorf("expected decode error, got %v", err)
		}
	})
}
