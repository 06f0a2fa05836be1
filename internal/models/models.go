// package models defines the data model for the SpinSync backend
package models

import (
	"time"
)

// Session is the server-side record behind a session cookie. It holds the
// Spotify tokens for one authenticated user-agent.
//
// ExpiresAt is always the absolute wall-clock instant at which AccessToken
// stops being valid; an empty AccessToken means the session is unauthenticated.
// JSON tags support the redis backend, which stores marshaled records.
type Session struct {
	ID           string    `json:"id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Authenticated reports whether the session carries an access token.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}

// Expired reports whether the access token is stale at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// ClearTokens removes all token state, leaving an unauthenticated shell that
// remains addressable by its cookie.
func (s *Session) ClearTokens() {
	s.AccessToken = ""
	s.RefreshToken = ""
	s.ExpiresAt = time.Time{}
}

// Image is an artwork resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// Artist identifies a Spotify artist.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri,omitempty"`
}

// Album carries the album fields the client renders.
type Album struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name"`
	Images []Image `json:"images,omitempty"`
}

// Track is a Spotify track. Identity is the opaque ID; URI is what playlist
// mutation endpoints consume.
type Track struct {
	ID      string   `json:"id"`
	URI     string   `json:"uri"`
	Name    string   `json:"name"`
	Artists []Artist `json:"artists"`
	Album   Album    `json:"album"`
}

// ArtistNames returns the track's artist names in display order.
func (t Track) ArtistNames() []string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return names
}

// AlbumArt returns the first album image URL, or "" when none exists.
func (t Track) AlbumArt() string {
	if len(t.Album.Images) == 0 {
		return ""
	}
	return t.Album.Images[0].URL
}

// Profile is the current user's Spotify profile.
type Profile struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email,omitempty"`
	Country     string  `json:"country,omitempty"`
	Product     string  `json:"product,omitempty"`
	Images      []Image `json:"images,omitempty"`
}

// Market returns the profile's country code, defaulting to "US" when the
// profile omits it.
func (p Profile) Market() string {
	if p.Country == "" {
		return "US"
	}
	return p.Country
}

// ExternalURLs holds public web links for a Spotify resource.
type ExternalURLs struct {
	Spotify string `json:"spotify,omitempty"`
}

// Playlist is a Spotify playlist as returned by the creation endpoint.
type Playlist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Public       bool         `json:"public"`
	URI          string       `json:"uri,omitempty"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// WebURL returns the playlist's public web URL.
func (p Playlist) WebURL() string {
	return p.ExternalURLs.Spotify
}

// PlayHistory is one recently-played item: a track plus its play timestamp.
type PlayHistory struct {
	Track    Track  `json:"track"`
	PlayedAt string `json:"played_at"`
}

// RecentTrack is the flattened listening-history shape the SPA renders.
type RecentTrack struct {
	Name     string   `json:"name"`
	Artists  []string `json:"artists"`
	Album    string   `json:"album"`
	AlbumArt string   `json:"album_art"`
	PlayedAt string   `json:"played_at"`
}

// NewRecentTrack flattens a play-history item for the client.
func NewRecentTrack(h PlayHistory) RecentTrack {
	return RecentTrack{
		Name:     h.Track.Name,
		Artists:  h.Track.ArtistNames(),
		Album:    h.Track.Album.Name,
		AlbumArt: h.Track.AlbumArt(),
		PlayedAt: h.PlayedAt,
	}
}
