// Package models defines the domain entities for the SpinSync backend.
//
// The package contains two categories of types:
//
// 1. Session state: the server-side record behind a session cookie
//   - [Session] : per-cookie token set with absolute expiry
//
// 2. Spotify resources: the subset of Web API objects SpinSync reads and writes
//   - [Profile] : the current user, source of the playlist owner and market
//   - [Track] / [Artist] / [Album] : catalog objects used for mix selection
//   - [Playlist] : the created playlist and its public web URL
//   - [PlayHistory] / [RecentTrack] : listening history and its client shape
//
// Types carry JSON tags matching the Spotify wire format so service-layer
// decoding and the redis session backend share one set of structs.
package models
