package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/spinsync/spinsync/internal/models"
	"github.com/spinsync/spinsync/internal/shared"
	"golang.org/x/time/rate"
)

// Build assembles and publishes a mix playlist for the authenticated user.
//
// Candidate tracks are drawn from one of three pools in strict preference
// order: top tracks of related artists discovered from the user's top artists,
// the user's own top tracks, then recently played tracks. Pools never merge.
// Discovery candidates exclude anything already in the user's top or recent
// history, so that pool only ever surfaces unfamiliar tracks.
//
// A failed profile fetch, playlist creation, or track insert aborts the build.
// Failures while gathering candidates degrade to an empty pool instead, and
// the build only fails with [shared.ErrNoCandidates] once every pool is empty.
func (e *MixEngine) Build(ctx context.Context, progress chan<- ProgressUpdate, token string) (*MixResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: music service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchProfileUpdate())
	profile, err := e.service.Profile(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}
	market := profile.Market()

	var related []models.Artist
	if e.opts.Discover {
		e.sendProgress(progress, fetchSeedsUpdate(e.opts.SeedArtists))
		seeds, err := e.service.TopArtists(ctx, token, e.opts.SeedArtists, e.opts.TimeRange)
		if err != nil {
			e.logger.Debug("top artists unavailable, skipping discovery", "error", err)
		} else if len(seeds) > 0 {
			related = e.expandSeeds(ctx, progress, token, seeds)
		}
	}

	e.sendProgress(progress, fetchTopTracksUpdate(1, 2))
	topTracks, err := e.service.TopTracks(ctx, token, e.opts.TopLimit, e.opts.TimeRange)
	if err != nil {
		e.logger.Debug("top tracks unavailable", "error", err)
		topTracks = nil
	}

	e.sendProgress(progress, fetchRecentUpdate(2, 2))
	var recentTracks []models.Track
	history, err := e.service.RecentlyPlayed(ctx, token, e.opts.RecentLimit)
	if err != nil {
		e.logger.Debug("recently played unavailable", "error", err)
	} else {
		for _, item := range history {
			if item.Track.ID == "" {
				continue
			}
			recentTracks = append(recentTracks, item.Track)
		}
	}

	seen := make(map[string]bool, len(topTracks)+len(recentTracks))
	for _, track := range topTracks {
		seen[track.ID] = true
	}
	for _, track := range recentTracks {
		seen[track.ID] = true
	}

	var candidates []models.Track
	source := SourceDiscovery
	if len(related) > 0 {
		candidates = e.discoverTracks(ctx, progress, token, market, related, seen)
	}

	if len(candidates) == 0 && len(topTracks) > 0 {
		candidates = topTracks
		source = SourceTop
	} else if len(candidates) == 0 && len(recentTracks) > 0 {
		candidates = recentTracks
		source = SourceRecent
	}

	if len(candidates) == 0 {
		return nil, shared.ErrNoCandidates
	}

	e.sendProgress(progress, selectTracksUpdate(len(candidates)))
	mix := dedupTracks(candidates, e.opts.Size)

	uris := make([]string, len(mix))
	for i, track := range mix {
		uris[i] = track.URI
	}

	e.sendProgress(progress, createMixUpdate(nil))
	playlist, err := e.service.CreatePlaylist(ctx, token, profile.ID, e.opts.Name, e.opts.Description, e.opts.Public)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	e.sendProgress(progress, createMixUpdate(playlist))

	e.sendProgress(progress, addTracksUpdate(len(uris)))
	if err := e.service.AddTracks(ctx, token, playlist.ID, uris); err != nil {
		return nil, fmt.Errorf("failed to add tracks: %w", err)
	}

	e.logger.Info("mix playlist published",
		"playlist", playlist.ID,
		"tracks", len(uris),
		"candidates", len(candidates),
		"source", source,
	)

	return &MixResult{
		Playlist:    playlist,
		PlaylistURL: playlist.WebURL(),
		TrackCount:  len(uris),
		Candidates:  len(candidates),
		Source:      source,
	}, nil
}

// expandSeeds looks up related artists for every seed concurrently and
// flattens the results in seed order. Each seed contributes at most
// RelatedPerSeed artists from the front of its response, and an artist
// already contributed by an earlier seed is dropped.
//
// Failed lookups leave their slot empty so one bad seed never sinks the
// expansion.
func (e *MixEngine) expandSeeds(ctx context.Context, progress chan<- ProgressUpdate, token string, seeds []models.Artist) []models.Artist {
	slots := make([][]models.Artist, len(seeds))

	e.fanOut(ctx, len(seeds), func(idx int) {
		e.sendProgress(progress, expandSeedUpdate(idx+1, len(seeds), &seeds[idx]))

		artists, err := e.service.RelatedArtists(ctx, token, seeds[idx].ID)
		if err != nil {
			e.logger.Debug("related artists fetch failed", "artist", seeds[idx].Name, "error", err)
			return
		}
		slots[idx] = artists
	})

	seen := make(map[string]bool)
	var related []models.Artist
	for _, artists := range slots {
		if len(artists) > e.opts.RelatedPerSeed {
			artists = artists[:e.opts.RelatedPerSeed]
		}
		for _, artist := range artists {
			if seen[artist.ID] {
				continue
			}
			seen[artist.ID] = true
			related = append(related, artist)
		}
	}
	return related
}

// discoverTracks fetches the top tracks of every related artist concurrently
// and flattens them in artist order, dropping anything in the seen set.
// Duplicate tracks across artists survive here and are collapsed by the final
// dedup pass, which keeps the first occurrence.
func (e *MixEngine) discoverTracks(ctx context.Context, progress chan<- ProgressUpdate, token, market string, artists []models.Artist, seen map[string]bool) []models.Track {
	slots := make([][]models.Track, len(artists))

	e.fanOut(ctx, len(artists), func(idx int) {
		e.sendProgress(progress, discoveryUpdate(idx+1, len(artists), &artists[idx]))

		tracks, err := e.service.ArtistTopTracks(ctx, token, artists[idx].ID, market)
		if err != nil {
			e.logger.Debug("artist top tracks fetch failed", "artist", artists[idx].Name, "error", err)
			return
		}
		slots[idx] = tracks
	})

	var candidates []models.Track
	for _, tracks := range slots {
		for _, track := range tracks {
			if seen[track.ID] {
				continue
			}
			candidates = append(candidates, track)
		}
	}
	return candidates
}

// fanOut runs fn for each index in [0, n) across a bounded worker pool,
// pacing dispatch with the configured rate limit. fn writes into caller-owned
// indexed slots, which keeps output order independent of scheduling.
func (e *MixEngine) fanOut(ctx context.Context, n int, fn func(idx int)) {
	limiter := rate.NewLimiter(rate.Limit(e.opts.RateLimit), 1)

	jobs := make(chan int, n)

	workers := e.opts.NumWorkers
	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				if err := limiter.Wait(ctx); err != nil {
					return
				}

				fn(idx)
			}
		}()
	}

	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// dedupTracks keeps the first occurrence of each track ID, up to limit.
func dedupTracks(tracks []models.Track, limit int) []models.Track {
	seen := make(map[string]bool, len(tracks))
	unique := make([]models.Track, 0, limit)

	for _, track := range tracks {
		if seen[track.ID] {
			continue
		}
		seen[track.ID] = true
		unique = append(unique, track)
		if len(unique) >= limit {
			break
		}
	}
	return unique
}
