// Package tasks builds mix playlists from a Spotify listening profile.
//
// # Engine
//
// [Engine] is implemented by [MixEngine], which owns the full pipeline from
// listening history to published playlist. A build fetches the user profile,
// expands the user's top artists into related artists, collects candidate
// tracks, selects the final mix, and publishes it:
//
//	engine := tasks.NewMixEngine(client, tasks.NewMixOpts(cfg.Mix), logger)
//	result, err := engine.Build(ctx, progress, token)
//
// # Candidate Pools
//
// Candidates come from exactly one pool, tried in order:
//
//  1. discovery: top tracks of artists related to the user's top artists,
//     excluding anything already in the user's top or recent history
//  2. top: the user's own top tracks
//  3. recent: the user's recently played tracks
//
// The pools never merge. When every pool is empty the build fails with
// [shared.ErrNoCandidates].
//
// # Fan-Out
//
// Per-artist lookups run on a bounded worker pool paced by a shared rate
// limit. Results land in indexed slots so the final track order depends only
// on seed order, never on scheduling.
//
// # Progress Reporting
//
// Long-running operations accept a progress channel and emit [ProgressUpdate]
// events. Sends are non-blocking: a slow or absent consumer never stalls a
// build.
package tasks
