package tasks

import (
	"fmt"

	"github.com/spinsync/spinsync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to stream real-time status to the HTTP or CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced consumers
}

// Operation phase enumeration
type Phase int

const (
	FetchProfile Phase = iota
	FetchSeeds
	ExpandSeeds
	FetchHistory
	FetchDiscovery
	SelectTracks
	CreateMix
	AddToMix
)

func (p Phase) String() string {
	switch p {
	case FetchProfile:
		return "fetch_profile"
	case FetchSeeds:
		return "fetch_seeds"
	case ExpandSeeds:
		return "expand_seeds"
	case FetchHistory:
		return "fetch_history"
	case FetchDiscovery:
		return "fetch_discovery"
	case SelectTracks:
		return "select_tracks"
	case CreateMix:
		return "create_playlist"
	case AddToMix:
		return "add_tracks"
	default:
		return ""
	}
}

func fetchProfileUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProfile,
		Step:    1,
		Total:   1,
		Message: "Fetching user profile from Spotify...",
	}
}

func fetchSeedsUpdate(limit int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSeeds,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching top %d artists for discovery seeds...", limit),
	}
}

func expandSeedUpdate(step, total int, artist *models.Artist) ProgressUpdate {
	if artist == nil {
		return ProgressUpdate{
			Phase:   ExpandSeeds,
			Step:    step,
			Total:   total,
			Message: "Expanding seed artists...",
		}
	}
	return ProgressUpdate{
		Phase:   ExpandSeeds,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Finding artists similar to %s...", step, total, artist.Name),
	}
}

func fetchTopTracksUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchHistory,
		Step:    step,
		Total:   total,
		Message: "Fetching top tracks...",
	}
}

func fetchRecentUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchHistory,
		Step:    step,
		Total:   total,
		Message: "Fetching recently played tracks...",
	}
}

func discoveryUpdate(step, total int, artist *models.Artist) ProgressUpdate {
	if artist == nil {
		return ProgressUpdate{
			Phase:   FetchDiscovery,
			Step:    step,
			Total:   total,
			Message: "Collecting tracks from similar artists...",
		}
	}
	return ProgressUpdate{
		Phase:   FetchDiscovery,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Collecting tracks from %s...", step, total, artist.Name),
	}
}

func selectTracksUpdate(candidates int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SelectTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Selecting tracks from %d candidates...", candidates),
	}
}

func createMixUpdate(pl *models.Playlist) ProgressUpdate {
	if pl == nil {
		return ProgressUpdate{
			Phase:   CreateMix,
			Step:    1,
			Total:   1,
			Message: "Creating playlist...",
		}
	}
	return ProgressUpdate{
		Phase:   CreateMix,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func addTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddToMix,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Adding %d tracks to the playlist...", count),
	}
}
