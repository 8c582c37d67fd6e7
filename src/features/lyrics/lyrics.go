package lyrics

import (
	"context"
	"time"

	"github.com/contre95/lyricbar/src/music"
)

// Provider attempts to produce lyrics for a track. Providers must not mutate
// shared state; they may block (for example on a subprocess).
type Provider interface {
	// Name returns the provider name
	Name() string
	// TryResolve returns the lyrics and true, or false when it has none.
	TryResolve(ctx context.Context, track *music.Track) (string, bool)
}

// Cache stores lyrics by track identity.
type Cache interface {
	Has(id music.TrackIdentity) bool
	Get(id music.TrackIdentity) (string, bool)
	Put(id music.TrackIdentity, text string) bool
	Remove(id music.TrackIdentity) error
}

// Recorder observes the pipeline for metrics.
type Recorder interface {
	ResolutionFinished(outcome music.Outcome, elapsed time.Duration)
	ProviderFinished(provider string, found bool, elapsed time.Duration)
	StaleResultDropped()
	CachePurged(count int)
}

type nopRecorder struct{}

func (nopRecorder) ResolutionFinished(music.Outcome, time.Duration) {}
func (nopRecorder) ProviderFinished(string, bool, time.Duration)    {}
func (nopRecorder) StaleResultDropped()                             {}
func (nopRecorder) CachePurged(int)                                 {}

// readIdentity copies artist and title out of the track. The caller must hold the metadata lock.
func readIdentity(meta music.MetadataSource, track *music.Track) music.TrackIdentity {
	artist, _ := meta.FindMeta(track, music.FieldArtist)
	title, _ := meta.FindMeta(track, music.FieldTitle)
	return music.TrackIdentity{Artist: artist, Title: title}
}
