package cache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/contre95/lyricbar/src/music"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "lyricbar", "lyrics"))
	if err := store.EnsureReady(); err != nil {
		t.Fatalf("EnsureReady failed: %v", err)
	}
	return store
}

func TestKeyReplacesSeparators(t *testing.T) {
	tests := []struct {
		id   music.TrackIdentity
		want string
	}{
		{music.TrackIdentity{Artist: "AC/DC", Title: "T.N.T"}, "AC_DC-T.N.T"},
		{music.TrackIdentity{Artist: "a/b/c", Title: "/x/"}, "a_b_c-_x_"},
		{music.TrackIdentity{Artist: "..", Title: ".."}, "..-.."},
		{music.TrackIdentity{Artist: "Sigur Rós", Title: "Hoppípolla"}, "Sigur Rós-Hoppípolla"},
	}
	for _, tt := range tests {
		got := Key(tt.id)
		if got != tt.want {
			t.Errorf("Key(%v) = %q, want %q", tt.id, got, tt.want)
		}
		if strings.Contains(got, "/") {
			t.Errorf("Key(%v) = %q contains a path separator", tt.id, got)
		}
	}
}

func TestKeyDashCollisionIsPreserved(t *testing.T) {
	a := Key(music.TrackIdentity{Artist: "A-B", Title: "C"})
	b := Key(music.TrackIdentity{Artist: "A", Title: "B-C"})
	if a != b {
		t.Errorf("expected %q and %q to collide", a, b)
	}
}

func TestPathStaysInsideCacheDir(t *testing.T) {
	store := newTestStore(t)
	id := music.TrackIdentity{Artist: "../../etc", Title: "../passwd"}
	path := store.Path(id)
	if filepath.Dir(path) != store.Dir() {
		t.Errorf("path %q escapes cache dir %q", path, store.Dir())
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	id := music.TrackIdentity{Artist: "AC/DC", Title: "T.N.T"}
	text := "Oi! Oi! Oi!\r\n\tI'm dynamite\x00 \xe2\x9a\xa1\n"

	if !store.Put(id, text) {
		t.Fatal("Put returned false")
	}
	got, ok := store.Get(id)
	if !ok {
		t.Fatal("Get missed a freshly written entry")
	}
	if got != text {
		t.Errorf("Get = %q, want %q", got, text)
	}
	if !store.Has(id) {
		t.Error("Has returned false for a cached entry")
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "AC_DC-T.N.T")); err != nil {
		t.Errorf("expected cache file at substituted key: %v", err)
	}
}

func TestPutTruncatesExistingEntry(t *testing.T) {
	store := newTestStore(t)
	id := music.TrackIdentity{Artist: "Artist", Title: "Title"}

	store.Put(id, "a much longer first version of the lyrics")
	store.Put(id, "short")

	got, _ := store.Get(id)
	if got != "short" {
		t.Errorf("expected truncated content, got %q", got)
	}
}

func TestGetMissingEntry(t *testing.T) {
	store := newTestStore(t)
	got, ok := store.Get(music.TrackIdentity{Artist: "Nobody", Title: "Nothing"})
	if ok || got != "" {
		t.Errorf("expected miss, got %q, %v", got, ok)
	}
}

func TestIncompleteIdentityIsNeverCached(t *testing.T) {
	store := newTestStore(t)
	ids := []music.TrackIdentity{
		{Artist: "", Title: "Title"},
		{Artist: "Artist", Title: ""},
		{},
	}
	for _, id := range ids {
		if store.Put(id, "text") {
			t.Errorf("Put(%v) should refuse an incomplete identity", id)
		}
		if store.Has(id) {
			t.Errorf("Has(%v) should be false", id)
		}
		if _, ok := store.Get(id); ok {
			t.Errorf("Get(%v) should miss", id)
		}
	}
	entries, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty cache, got %v", entries)
	}
}

func TestPutFailsWithoutDirectory(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing", "lyrics"))
	id := music.TrackIdentity{Artist: "Artist", Title: "Title"}
	if store.Put(id, "text") {
		t.Fatal("expected Put to fail when the cache directory does not exist")
	}
	if store.Has(id) {
		t.Error("no entry should exist after a failed Put")
	}
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)
	id := music.TrackIdentity{Artist: "Artist", Title: "Title"}

	if err := store.Remove(id); err != nil {
		t.Errorf("removing an absent entry should be a no-op, got %v", err)
	}
	store.Put(id, "text")
	if err := store.Remove(id); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if store.Has(id) {
		t.Error("entry still present after Remove")
	}
}

func TestEnsureReadyIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.EnsureReady(); err != nil {
		t.Errorf("second EnsureReady failed: %v", err)
	}
}

func TestListSkipsDirectories(t *testing.T) {
	store := newTestStore(t)
	store.Put(music.TrackIdentity{Artist: "B", Title: "2"}, "two")
	store.Put(music.TrackIdentity{Artist: "A", Title: "1"}, "one!")
	if err := os.Mkdir(filepath.Join(store.Dir(), "subdir"), 0755); err != nil {
		t.Fatal(err)
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Key != "A-1" || entries[0].Size != 4 {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	if n, err := store.Count(); err != nil || n != 2 {
		t.Errorf("Count() = %d, %v; want 2", n, err)
	}
}

func TestConcurrentPutsLeaveOneCompleteValue(t *testing.T) {
	store := newTestStore(t)
	id := music.TrackIdentity{Artist: "Artist", Title: "Title"}
	values := []string{strings.Repeat("a", 4096), strings.Repeat("b", 2048), strings.Repeat("c", 8192)}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(v string) {
			defer wg.Done()
			store.Put(id, v)
		}(values[i%len(values)])
	}
	wg.Wait()

	got, ok := store.Get(id)
	if !ok {
		t.Fatal("expected an entry after concurrent writes")
	}
	valid := false
	for _, v := range values {
		if got == v {
			valid = true
		}
	}
	if !valid {
		t.Errorf("cache holds an interleaved value of length %d", len(got))
	}
}
