package music

import (
	"context"

	"github.com/google/uuid"
)

// Player exposes the now-playing state of the host.
type Player interface {
	NowPlaying() *Track
}

// MetadataSource gives read access to track metadata. FindMeta must only be
// called between LockMeta and UnlockMeta, and the lock must not be held
// across blocking I/O.
type MetadataSource interface {
	LockMeta()
	UnlockMeta()
	FindMeta(track *Track, name string) (string, bool)
}

// Display receives lyrics updates. Implementations must be safe to call from
// any goroutine and must hand the update over to their own UI context.
type Display interface {
	ShowLyrics(track *Track, result LyricsResult)
}

// Playlist enumerates the host's current playlist. Both methods must be
// called with the metadata lock held.
type Playlist interface {
	Tracks() []*Track
	IsSelected(track *Track) bool
}

// Host bundles every capability the lyrics pipeline consumes.
type Host interface {
	Player
	MetadataSource
	Display
	Playlist
}

// CompiledTemplate is a parsed command template ready to be expanded for a track.
type CompiledTemplate interface {
	Evaluate(track *Track) (string, error)
}

// TemplateCompiler turns a command template string into a CompiledTemplate.
type TemplateCompiler interface {
	Compile(template string) (CompiledTemplate, error)
}

// TrackRepository persists the playlist.
type TrackRepository interface {
	AddTrack(ctx context.Context, track *Track) error
	GetTracks(ctx context.Context) ([]*Track, error)
	DeleteTrack(ctx context.Context, id string) error
}

// TagReader reads track metadata from an audio file.
type TagReader interface {
	ReadFileTags(ctx context.Context, path string) (*Track, error)
}

// generateID creates a new UUID string
func generateID() string {
	return uuid.New().String()
}
