package lyrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/contre95/lyricbar/src/music"
)

// Chain asks providers in order and stops at the first one with lyrics.
type Chain struct {
	providers []Provider
	recorder  Recorder
}

// NewChain creates a provider chain. recorder may be nil.
func NewChain(recorder Recorder, providers ...Provider) *Chain {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Chain{providers: providers, recorder: recorder}
}

// Resolve returns the first provider result along with that provider's name.
func (c *Chain) Resolve(ctx context.Context, track *music.Track) (string, string, bool) {
	for _, provider := range c.providers {
		slog.Debug("Trying lyrics provider", "provider", provider.Name(), "trackID", track.ID)
		start := time.Now()
		lyrics, ok := provider.TryResolve(ctx, track)
		c.recorder.ProviderFinished(provider.Name(), ok, time.Since(start))
		if ok {
			slog.Info("Found lyrics with provider", "provider", provider.Name(), "trackID", track.ID, "lyricsLength", len(lyrics))
			return lyrics, provider.Name(), true
		}
	}
	return "", "", false
}

// Names lists the providers in evaluation order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.providers))
	for i, provider := range c.providers {
		names[i] = provider.Name()
	}
	return names
}
