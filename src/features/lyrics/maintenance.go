package lyrics

import (
	"log/slog"

	"github.com/contre95/lyricbar/src/music"
)

// PurgeAction removes cached lyrics for the selected playlist items.
type PurgeAction struct {
	host     music.Host
	cache    Cache
	recorder Recorder
}

// NewPurgeAction creates a purge action. recorder may be nil.
func NewPurgeAction(host music.Host, cache Cache, recorder Recorder) *PurgeAction {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &PurgeAction{host: host, cache: cache, recorder: recorder}
}

// PurgeSelection deletes the cache entry of every selected track that has an
// artist and a title. The playlist is read in one pass under the metadata
// lock; files are removed after it is released. Failures are logged and
// skipped. It returns the number of entries removed.
func (a *PurgeAction) PurgeSelection() int {
	a.host.LockMeta()
	var ids []music.TrackIdentity
	for _, track := range a.host.Tracks() {
		if !a.host.IsSelected(track) {
			continue
		}
		if id := readIdentity(a.host, track); id.Complete() {
			ids = append(ids, id)
		}
	}
	a.host.UnlockMeta()

	removed := 0
	for _, id := range ids {
		if !a.cache.Has(id) {
			continue
		}
		if err := a.cache.Remove(id); err != nil {
			slog.Warn("Failed to remove cached lyrics", "artist", id.Artist, "title", id.Title, "error", err)
			continue
		}
		removed++
	}

	a.recorder.CachePurged(removed)
	slog.Info("Purged cached lyrics for selection", "selected", len(ids), "removed", removed)
	return removed
}
