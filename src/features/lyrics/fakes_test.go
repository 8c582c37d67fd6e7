package lyrics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/contre95/lyricbar/src/music"
)

type shownLyrics struct {
	track  *music.Track
	result music.LyricsResult
}

// fakeHost is an in-memory music.Host. FindMeta panics when the metadata lock is not held.
type fakeHost struct {
	meta sync.Mutex

	mu       sync.Mutex
	current  *music.Track
	tracks   []*music.Track
	selected map[*music.Track]bool
	shown    []shownLyrics
}

func newFakeHost(tracks ...*music.Track) *fakeHost {
	return &fakeHost{tracks: tracks, selected: map[*music.Track]bool{}}
}

func (h *fakeHost) LockMeta()   { h.meta.Lock() }
func (h *fakeHost) UnlockMeta() { h.meta.Unlock() }

func (h *fakeHost) FindMeta(track *music.Track, name string) (string, bool) {
	if h.meta.TryLock() {
		h.meta.Unlock()
		panic("FindMeta called without the metadata lock")
	}
	v, ok := track.Metadata[name]
	return v, ok
}

func (h *fakeHost) play(track *music.Track) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = track
}

func (h *fakeHost) NowPlaying() *music.Track {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *fakeHost) ShowLyrics(track *music.Track, result music.LyricsResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shown = append(h.shown, shownLyrics{track: track, result: result})
}

func (h *fakeHost) Tracks() []*music.Track { return h.tracks }

func (h *fakeHost) IsSelected(track *music.Track) bool { return h.selected[track] }

func (h *fakeHost) displayed() []shownLyrics {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shownLyrics(nil), h.shown...)
}

func (h *fakeHost) last() music.LyricsResult {
	shown := h.displayed()
	if len(shown) == 0 {
		return music.LyricsResult{}
	}
	return shown[len(shown)-1].result
}

// stubProvider returns fixed text. When release is set it blocks until the channel is closed.
type stubProvider struct {
	name    string
	text    string
	ok      bool
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) TryResolve(ctx context.Context, track *music.Track) (string, bool) {
	p.calls.Add(1)
	if p.started != nil {
		select {
		case p.started <- struct{}{}:
		default:
		}
	}
	if p.release != nil {
		<-p.release
	}
	return p.text, p.ok
}

type countingRecorder struct {
	mu          sync.Mutex
	outcomes    []music.Outcome
	providers   []string
	stale       int
	purged      int
	purgedCalls int
}

func (r *countingRecorder) ResolutionFinished(outcome music.Outcome, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *countingRecorder) ProviderFinished(provider string, _ bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, provider)
}

func (r *countingRecorder) StaleResultDropped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale++
}

func (r *countingRecorder) CachePurged(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purged += count
	r.purgedCalls++
}

func (r *countingRecorder) staleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stale
}

func newTrack(artist, title string) *music.Track {
	meta := map[string]string{}
	if artist != "" {
		meta[music.FieldArtist] = artist
	}
	if title != "" {
		meta[music.FieldTitle] = title
	}
	return music.NewTrack("/music/"+title+".mp3", meta)
}
