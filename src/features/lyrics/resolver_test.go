package lyrics

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/contre95/lyricbar/src/features/config"
	"github.com/contre95/lyricbar/src/infra/cache"
	"github.com/contre95/lyricbar/src/infra/files"
	"github.com/contre95/lyricbar/src/infra/providers"
	"github.com/contre95/lyricbar/src/infra/shell"
	"github.com/contre95/lyricbar/src/music"
)

type staticConfig map[string]string

func (c staticConfig) GetString(key string) string { return c[key] }

func newStore(t *testing.T) *cache.Store {
	t.Helper()
	store := cache.NewStore(filepath.Join(t.TempDir(), "lyrics"))
	if err := store.EnsureReady(); err != nil {
		t.Fatalf("EnsureReady() error = %v", err)
	}
	return store
}

// newScriptResolver wires a resolver to a real shell script provider.
func newScriptResolver(t *testing.T, host *fakeHost, command string) (*Resolver, *cache.Store) {
	t.Helper()
	store := newStore(t)
	script := providers.NewScriptProvider(
		staticConfig{config.KeyCustomCommand: command},
		files.NewCommandTemplateCompiler(host),
		shell.NewRunner(func() time.Duration { return 5 * time.Second }),
	)
	resolver := NewResolver(host, store, NewChain(nil, script), Options{})
	t.Cleanup(resolver.Close)
	return resolver, store
}

func cacheEntries(t *testing.T, store *cache.Store) int {
	t.Helper()
	entries, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	return len(entries)
}

func TestResolveUsesEmbeddedLyrics(t *testing.T) {
	track := newTrack("Artist", "Song")
	track.Metadata["unsynced lyrics"] = "embedded words"
	host := newFakeHost(track)
	host.play(track)

	provider := &stubProvider{name: "stub", text: "from provider", ok: true}
	store := newStore(t)
	resolver := NewResolver(host, store, NewChain(nil, provider), Options{})
	defer resolver.Close()

	outcome := resolver.Resolve(context.Background(), track)

	if outcome != music.FoundViaMetadata {
		t.Fatalf("outcome = %q, want %q", outcome, music.FoundViaMetadata)
	}
	if got := host.last(); got != music.Found("embedded words") {
		t.Errorf("displayed %+v, want embedded lyrics", got)
	}
	if provider.calls.Load() != 0 {
		t.Errorf("provider called %d times, want 0", provider.calls.Load())
	}
	if n := cacheEntries(t, store); n != 0 {
		t.Errorf("cache has %d entries, want 0", n)
	}
}

func TestResolveTagPriority(t *testing.T) {
	track := newTrack("Artist", "Song")
	track.Metadata["lyrics"] = "third"
	track.Metadata["UNSYNCEDLYRICS"] = "second"
	host := newFakeHost(track)
	host.play(track)

	resolver := NewResolver(host, newStore(t), NewChain(nil), Options{})
	defer resolver.Close()
	resolver.Resolve(context.Background(), track)

	if got := host.last(); got.Text != "second" {
		t.Errorf("displayed %q, want %q", got.Text, "second")
	}
}

func TestResolveEmptyScriptIsNotFound(t *testing.T) {
	track := newTrack("Artist", "Song")
	host := newFakeHost(track)
	host.play(track)
	resolver, store := newScriptResolver(t, host, "")

	outcome := resolver.Resolve(context.Background(), track)

	if outcome != music.OutcomeNotFound {
		t.Fatalf("outcome = %q, want %q", outcome, music.OutcomeNotFound)
	}
	if got := host.last(); got.State != music.LyricsNotFound {
		t.Errorf("final state = %q, want %q", got.State, music.LyricsNotFound)
	}
	if n := cacheEntries(t, store); n != 0 {
		t.Errorf("cache has %d entries, want 0", n)
	}
}

func TestResolveScriptOutputIsDisplayedAndCached(t *testing.T) {
	track := newTrack("AC/DC", "T.N.T")
	host := newFakeHost(track)
	host.play(track)
	resolver, store := newScriptResolver(t, host, "printf Hello")

	outcome := resolver.Resolve(context.Background(), track)

	if outcome != music.FoundViaProvider {
		t.Fatalf("outcome = %q, want %q", outcome, music.FoundViaProvider)
	}
	shown := host.displayed()
	if len(shown) != 2 || shown[0].result.State != music.LyricsLoading || shown[1].result != music.Found("Hello") {
		t.Fatalf("displayed %+v, want Loading then Found(Hello)", shown)
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), "AC_DC-T.N.T"))
	if err != nil {
		t.Fatalf("reading cache file: %v", err)
	}
	if string(data) != "Hello" {
		t.Errorf("cache file = %q, want %q", data, "Hello")
	}

	if outcome := resolver.Resolve(context.Background(), track); outcome != music.FoundViaCache {
		t.Errorf("second outcome = %q, want %q", outcome, music.FoundViaCache)
	}
	if got := host.last(); got != music.Found("Hello") {
		t.Errorf("second display = %+v, want Found(Hello)", got)
	}
}

func TestResolveFailingScriptWritesNothing(t *testing.T) {
	track := newTrack("AC/DC", "T.N.T")
	host := newFakeHost(track)
	host.play(track)
	resolver, store := newScriptResolver(t, host, "exit 1")

	if outcome := resolver.Resolve(context.Background(), track); outcome != music.OutcomeNotFound {
		t.Fatalf("outcome = %q, want %q", outcome, music.OutcomeNotFound)
	}
	if got := host.last(); got.State != music.LyricsNotFound {
		t.Errorf("final state = %q, want %q", got.State, music.LyricsNotFound)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "AC_DC-T.N.T")); !os.IsNotExist(err) {
		t.Errorf("cache file exists or stat failed: %v", err)
	}
}

func TestResolveIncompleteIdentitySkipsProviders(t *testing.T) {
	track := newTrack("", "Untitled Artist Song")
	host := newFakeHost(track)
	host.play(track)
	provider := &stubProvider{name: "stub", text: "words", ok: true}
	resolver := NewResolver(host, newStore(t), NewChain(nil, provider), Options{})
	defer resolver.Close()

	if outcome := resolver.Resolve(context.Background(), track); outcome != music.OutcomeNotFound {
		t.Fatalf("outcome = %q, want %q", outcome, music.OutcomeNotFound)
	}
	if provider.calls.Load() != 0 {
		t.Errorf("provider called %d times, want 0", provider.calls.Load())
	}
	if shown := host.displayed(); len(shown) != 1 || shown[0].result.State != music.LyricsNotFound {
		t.Errorf("displayed %+v, want a single NotFound", shown)
	}
}

func TestResolveDropsResultsForPreviousTrack(t *testing.T) {
	x := newTrack("Band", "X")
	y := newTrack("Band", "Y")
	y.Metadata["lyrics"] = "lyrics for Y"
	host := newFakeHost(x, y)
	recorder := &countingRecorder{}

	slow := &stubProvider{name: "slow", text: "lyrics for X", ok: true, started: make(chan struct{}, 1), release: make(chan struct{})}
	store := newStore(t)
	resolverX := NewResolver(host, store, NewChain(nil, slow), Options{Recorder: recorder})
	defer resolverX.Close()

	host.play(x)
	resolverX.OnTrackChanged(x)
	<-slow.started

	host.play(y)
	resolverX.Resolve(context.Background(), y)

	close(slow.release)
	resolverX.Wait()

	for _, s := range host.displayed() {
		if s.track == x && s.result.State == music.LyricsFound {
			t.Fatalf("lyrics for X were displayed after Y started playing")
		}
	}
	if got := host.last(); got != music.Found("lyrics for Y") {
		t.Errorf("final display = %+v, want lyrics for Y", got)
	}
	if recorder.staleCount() == 0 {
		t.Errorf("expected a stale result to be recorded")
	}
	// The lookup still completes and is cached for next time.
	if text, ok := store.Get(music.TrackIdentity{Artist: "Band", Title: "X"}); !ok || text != "lyrics for X" {
		t.Errorf("cache for X = %q, %v", text, ok)
	}
}

func TestResolveRunsOneLookupPerIdentity(t *testing.T) {
	track := newTrack("Artist", "Song")
	host := newFakeHost(track)
	host.play(track)

	provider := &stubProvider{name: "slow", text: "words", ok: true, started: make(chan struct{}, 1), release: make(chan struct{})}
	resolver := NewResolver(host, newStore(t), NewChain(nil, provider), Options{})
	defer resolver.Close()

	var wg sync.WaitGroup
	outcomes := make([]music.Outcome, 3)
	wg.Add(1)
	go func() {
		defer wg.Done()
		outcomes[0] = resolver.Resolve(context.Background(), track)
	}()
	<-provider.started
	for i := 1; i < len(outcomes); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = resolver.Resolve(context.Background(), track)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(provider.release)
	wg.Wait()

	if calls := provider.calls.Load(); calls != 1 {
		t.Errorf("provider called %d times, want 1", calls)
	}
	for i, outcome := range outcomes {
		if outcome == music.OutcomeNotFound {
			t.Errorf("resolution %d found nothing", i)
		}
	}
	if got := host.last(); got != music.Found("words") {
		t.Errorf("final display = %+v, want Found(words)", got)
	}
}

func TestResolveCallerCancellation(t *testing.T) {
	track := newTrack("Artist", "Song")
	host := newFakeHost(track)
	host.play(track)

	provider := &stubProvider{name: "slow", text: "words", ok: true, started: make(chan struct{}, 1), release: make(chan struct{})}
	store := newStore(t)
	resolver := NewResolver(host, store, NewChain(nil, provider), Options{})
	defer resolver.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan music.Outcome, 1)
	go func() { done <- resolver.Resolve(ctx, track) }()
	<-provider.started
	cancel()

	if outcome := <-done; outcome != music.OutcomeNotFound {
		t.Errorf("outcome = %q, want %q", outcome, music.OutcomeNotFound)
	}

	close(provider.release)
	deadline := time.Now().Add(2 * time.Second)
	for !store.Has(music.TrackIdentity{Artist: "Artist", Title: "Song"}) {
		if time.Now().After(deadline) {
			t.Fatal("abandoned lookup never reached the cache")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestResolveRecordsOutcomes(t *testing.T) {
	track := newTrack("Artist", "Song")
	host := newFakeHost(track)
	host.play(track)
	recorder := &countingRecorder{}
	provider := &stubProvider{name: "stub", text: "words", ok: true}
	resolver := NewResolver(host, newStore(t), NewChain(recorder, provider), Options{Recorder: recorder})
	defer resolver.Close()

	resolver.Resolve(context.Background(), track)
	resolver.Resolve(context.Background(), track)

	want := []music.Outcome{music.FoundViaProvider, music.FoundViaCache}
	if len(recorder.outcomes) != len(want) {
		t.Fatalf("outcomes = %v, want %v", recorder.outcomes, want)
	}
	for i := range want {
		if recorder.outcomes[i] != want[i] {
			t.Errorf("outcome[%d] = %q, want %q", i, recorder.outcomes[i], want[i])
		}
	}
	if len(recorder.providers) != 1 || recorder.providers[0] != "stub" {
		t.Errorf("providers = %v, want [stub]", recorder.providers)
	}
}

func TestResolveAbandonedMissStillShowsNotFound(t *testing.T) {
	track := newTrack("Artist", "Song")
	host := newFakeHost(track)
	host.play(track)

	provider := &stubProvider{name: "slow", ok: false, started: make(chan struct{}, 1), release: make(chan struct{})}
	resolver := NewResolver(host, newStore(t), NewChain(nil, provider), Options{})
	defer resolver.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan music.Outcome, 1)
	go func() { done <- resolver.Resolve(ctx, track) }()
	<-provider.started
	cancel()
	<-done

	if got := host.last(); got != music.Loading() {
		t.Fatalf("display before the lookup ends = %+v, want Loading", got)
	}
	close(provider.release)

	deadline := time.Now().Add(2 * time.Second)
	for host.last() != music.NotFound() {
		if time.Now().After(deadline) {
			t.Fatalf("display stuck at %+v after the lookup missed", host.last())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestResolveSharesLookupForCollidingCacheKeys(t *testing.T) {
	first := newTrack("A-B", "C")
	second := newTrack("A", "B-C")
	host := newFakeHost(first, second)
	host.play(first)

	provider := &stubProvider{name: "slow", text: "words", ok: true, started: make(chan struct{}, 1), release: make(chan struct{})}
	resolver := NewResolver(host, newStore(t), NewChain(nil, provider), Options{})
	defer resolver.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		resolver.Resolve(context.Background(), first)
	}()
	<-provider.started
	go func() {
		defer wg.Done()
		resolver.Resolve(context.Background(), second)
	}()
	time.Sleep(50 * time.Millisecond)
	close(provider.release)
	wg.Wait()

	if calls := provider.calls.Load(); calls != 1 {
		t.Errorf("provider called %d times for one cache file, want 1", calls)
	}
}

func TestResolveIgnoresCaseVariantTags(t *testing.T) {
	track := newTrack("Artist", "Song")
	track.Metadata["LYRICS"] = "upper"
	host := newFakeHost(track)
	host.play(track)
	resolver, _ := newScriptResolver(t, host, "")

	if outcome := resolver.Resolve(context.Background(), track); outcome != music.OutcomeNotFound {
		t.Errorf("outcome = %q, want %q", outcome, music.OutcomeNotFound)
	}
}

func TestResolveReadsTagSourceEachTime(t *testing.T) {
	track := newTrack("Artist", "Song")
	track.Metadata["custom"] = "from custom"
	track.Metadata["lyrics"] = "from lyrics"
	host := newFakeHost(track)
	host.play(track)

	var mu sync.Mutex
	tags := []string{"lyrics"}
	source := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return tags
	}
	resolver := NewResolver(host, newStore(t), NewChain(nil), Options{TagSource: source})
	defer resolver.Close()

	resolver.Resolve(context.Background(), track)
	if got := host.last(); got != music.Found("from lyrics") {
		t.Errorf("first display = %+v", got)
	}

	mu.Lock()
	tags = []string{"custom", "lyrics"}
	mu.Unlock()

	resolver.Resolve(context.Background(), track)
	if got := host.last(); got != music.Found("from custom") {
		t.Errorf("display after reload = %+v", got)
	}
}
