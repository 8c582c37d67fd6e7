package lyrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/contre95/lyricbar/src/music"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Options configures a Resolver.
type Options struct {
	// LyricsTags are the metadata fields checked for embedded lyrics, in
	// priority order. Defaults to music.LyricsTagNames.
	LyricsTags []string
	// TagSource, when set, is read on every resolution and wins over LyricsTags
	// unless it returns nothing.
	TagSource func() []string
	Recorder  Recorder
}

// Resolver finds lyrics for the playing track: embedded tags first, then the
// cache, then the provider chain, writing provider results back to the cache.
type Resolver struct {
	host     music.Host
	cache    Cache
	chain    *Chain
	tags      []string
	tagSource func() []string
	recorder  Recorder

	// flight runs at most one provider lookup per cache key at a time.
	flight singleflight.Group
	// pushMu makes the now-playing check and the display update atomic.
	pushMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type fetchResult struct {
	lyrics  string
	found   bool
	outcome music.Outcome
}

// NewResolver creates a new lyrics resolver
func NewResolver(host music.Host, cache Cache, chain *Chain, opts Options) *Resolver {
	tags := opts.LyricsTags
	if len(tags) == 0 {
		tags = music.LyricsTagNames
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Resolver{
		host:     host,
		cache:    cache,
		chain:    chain,
		tags:      tags,
		tagSource: opts.TagSource,
		recorder:  recorder,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// OnTrackChanged starts resolving track in the background and returns immediately.
func (r *Resolver) OnTrackChanged(track *music.Track) {
	if track == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.Resolve(r.ctx, track)
	}()
}

// Wait blocks until every background resolution has finished.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

// Close cancels running provider lookups and waits for background resolutions.
func (r *Resolver) Close() {
	r.cancel()
	r.wg.Wait()
}

// Resolve runs the whole pipeline for track, pushing every intermediate and
// final result to the display while track is still playing. If ctx ends while
// a provider lookup is running, Resolve stops waiting but the lookup still
// completes and is cached.
func (r *Resolver) Resolve(ctx context.Context, track *music.Track) music.Outcome {
	start := time.Now()
	logger := slog.With("request", uuid.NewString(), "trackID", track.ID)

	outcome := r.resolve(ctx, logger, track)

	elapsed := time.Since(start)
	r.recorder.ResolutionFinished(outcome, elapsed)
	logger.Debug("Lyrics resolution finished", "outcome", outcome, "elapsed", elapsed.String())
	return outcome
}

func (r *Resolver) resolve(ctx context.Context, logger *slog.Logger, track *music.Track) music.Outcome {
	if lyrics, ok := r.fromMetadata(track); ok {
		logger.Debug("Using lyrics embedded in track metadata")
		r.push(track, music.Found(lyrics))
		return music.FoundViaMetadata
	}

	r.host.LockMeta()
	id := readIdentity(r.host, track)
	r.host.UnlockMeta()

	if !id.Complete() {
		logger.Debug("Track has no artist or title, skipping lookup", "artist", id.Artist, "title", id.Title)
		r.push(track, music.NotFound())
		return music.OutcomeNotFound
	}
	logger = logger.With("artist", id.Artist, "title", id.Title)

	if lyrics, ok := r.cache.Get(id); ok {
		logger.Debug("Using cached lyrics")
		r.push(track, music.Found(lyrics))
		return music.FoundViaCache
	}

	r.push(track, music.Loading())

	led := false
	ch := r.flight.DoChan(flightKey(id), func() (any, error) {
		led = true
		return r.fetch(logger, track, id), nil
	})

	select {
	case res := <-ch:
		result := res.Val.(fetchResult)
		if res.Shared && !led {
			logger.Debug("Joined a lookup already running for this track")
		}
		if !result.found {
			if !led {
				r.push(track, music.NotFound())
			}
			return music.OutcomeNotFound
		}
		if !led {
			r.push(track, music.Found(result.lyrics))
		}
		return result.outcome
	case <-ctx.Done():
		logger.Debug("Stopped waiting for lyrics lookup", "error", ctx.Err())
		return music.OutcomeNotFound
	}
}

// fetch runs once per cache key at a time, on behalf of the first caller,
// and displays its own result so it lands even if that caller stopped waiting.
// Lyrics are displayed before they are written to the cache.
func (r *Resolver) fetch(logger *slog.Logger, track *music.Track, id music.TrackIdentity) fetchResult {
	// A lookup that finished just before this one may already have cached the lyrics.
	if lyrics, ok := r.cache.Get(id); ok {
		r.push(track, music.Found(lyrics))
		return fetchResult{lyrics: lyrics, found: true, outcome: music.FoundViaCache}
	}

	lyrics, provider, ok := r.chain.Resolve(r.ctx, track)
	if !ok {
		logger.Info("No lyrics found for track", "providers", r.chain.Names())
		r.push(track, music.NotFound())
		return fetchResult{}
	}

	r.push(track, music.Found(lyrics))
	if !r.cache.Put(id, lyrics) {
		logger.Warn("Failed to cache lyrics", "provider", provider)
	}
	return fetchResult{lyrics: lyrics, found: true, outcome: music.FoundViaProvider}
}

func (r *Resolver) fromMetadata(track *music.Track) (string, bool) {
	r.host.LockMeta()
	defer r.host.UnlockMeta()
	for _, name := range r.lyricsTags() {
		if lyrics, ok := r.host.FindMeta(track, name); ok && lyrics != "" {
			return lyrics, true
		}
	}
	return "", false
}

func (r *Resolver) lyricsTags() []string {
	if r.tagSource != nil {
		if tags := r.tagSource(); len(tags) > 0 {
			return tags
		}
	}
	return r.tags
}

// push hands result to the display unless another track started playing.
func (r *Resolver) push(track *music.Track, result music.LyricsResult) bool {
	r.pushMu.Lock()
	defer r.pushMu.Unlock()

	if r.host.NowPlaying() != track {
		slog.Debug("Discarding lyrics for a track that is no longer playing", "trackID", track.ID, "state", result.State)
		r.recorder.StaleResultDropped()
		return false
	}
	r.host.ShowLyrics(track, result)
	return true
}

// flightKey matches the cache file name, so two identities sharing a cache
// entry never run providers at the same time.
func flightKey(id music.TrackIdentity) string {
	return id.CacheKey()
}
