// package tasks implements playlist generation for the SpinSync backend.
//
// The core abstraction is Engine, which turns a user's listening history into a published mix playlist.
// Operations emit progress updates via channels for non-blocking status reporting to the HTTP and CLI layers.
package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spinsync/spinsync/internal/models"
	"github.com/spinsync/spinsync/internal/services"
	"github.com/spinsync/spinsync/internal/shared"
)

// Candidate pool names recorded on [MixResult].
const (
	SourceDiscovery = "discovery"
	SourceTop       = "top"
	SourceRecent    = "recent"
)

// MixOpts contains configuration for building a mix playlist.
type MixOpts struct {
	Name           string  // Playlist name (default: "SpinSync Playlist")
	Description    string  // Playlist description
	Public         bool    // Playlist visibility
	Size           int     // Maximum tracks in the final mix (default: 30, max: 100)
	TopLimit       int     // Top tracks sampled for history (default: 20)
	RecentLimit    int     // Recently played tracks sampled (default: 20)
	TimeRange      string  // Listening window for top items (default: medium_term)
	Discover       bool    // Expand top artists into related-artist candidates
	SeedArtists    int     // Top artists used as discovery seeds (default: 10)
	RelatedPerSeed int     // Related artists kept per seed (default: 2)
	NumWorkers     int     // Concurrent fan-out workers (default: 4)
	RateLimit      float64 // Upstream requests per second during fan-out (default: 5)
}

// NewMixOpts maps the [mix] config table onto engine options.
func NewMixOpts(cfg shared.MixConfig) MixOpts {
	return MixOpts{
		Name:           cfg.Name,
		Description:    cfg.Description,
		Public:         cfg.Public,
		Size:           cfg.Size,
		TopLimit:       cfg.TopLimit,
		RecentLimit:    cfg.RecentLimit,
		TimeRange:      cfg.TimeRange,
		Discover:       cfg.Discover,
		SeedArtists:    cfg.SeedArtists,
		RelatedPerSeed: cfg.RelatedPerSeed,
		NumWorkers:     cfg.Workers,
		RateLimit:      cfg.RateLimit,
	}
}

// MixResult contains all data from a completed mix build.
type MixResult struct {
	Playlist    *models.Playlist // Created playlist
	PlaylistURL string           // Browser link to the created playlist
	TrackCount  int              // Tracks added to the playlist
	Candidates  int              // Candidate pool size before dedup and truncation
	Source      string           // Pool the mix was drawn from: discovery, top, or recent
}

// Engine defines playlist generation operations.
type Engine interface {
	// Build assembles a mix playlist for the user behind token and publishes it to their library.
	Build(ctx context.Context, progress chan<- ProgressUpdate, token string) (*MixResult, error)
}

// MixEngine implements Engine against a single upstream music service.
type MixEngine struct {
	service services.Service
	opts    MixOpts
	logger  *log.Logger
}

// NewMixEngine creates a MixEngine with defaults applied to zero-valued options.
//
// Size is capped at 100 because tracks are added in a single request.
func NewMixEngine(service services.Service, opts MixOpts, logger *log.Logger) *MixEngine {
	if opts.Name == "" {
		opts.Name = "SpinSync Playlist"
	}
	if opts.Description == "" {
		opts.Description = "A playlist made for you!"
	}
	if opts.Size <= 0 {
		opts.Size = 30
	}
	if opts.Size > 100 {
		opts.Size = 100
	}
	if opts.TopLimit <= 0 {
		opts.TopLimit = 20
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 20
	}
	if opts.TimeRange == "" {
		opts.TimeRange = "medium_term"
	}
	if opts.SeedArtists <= 0 {
		opts.SeedArtists = 10
	}
	if opts.RelatedPerSeed <= 0 {
		opts.RelatedPerSeed = 2
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &MixEngine{
		service: service,
		opts:    opts,
		logger:  logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *MixEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
