package lyrics

import (
	"testing"

	"github.com/contre95/lyricbar/src/music"
)

func TestPurgeSelection(t *testing.T) {
	selected := newTrack("AC/DC", "T.N.T")
	alsoSelected := newTrack("Band", "Uncached")
	untitled := newTrack("Band", "")
	kept := newTrack("Band", "Kept")
	host := newFakeHost(selected, alsoSelected, untitled, kept)
	host.selected[selected] = true
	host.selected[alsoSelected] = true
	host.selected[untitled] = true

	store := newStore(t)
	for _, id := range []music.TrackIdentity{
		{Artist: "AC/DC", Title: "T.N.T"},
		{Artist: "Band", Title: "Kept"},
	} {
		if !store.Put(id, "words") {
			t.Fatalf("Put(%v) failed", id)
		}
	}

	recorder := &countingRecorder{}
	removed := NewPurgeAction(host, store, recorder).PurgeSelection()

	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if store.Has(music.TrackIdentity{Artist: "AC/DC", Title: "T.N.T"}) {
		t.Error("selected entry still cached")
	}
	if !store.Has(music.TrackIdentity{Artist: "Band", Title: "Kept"}) {
		t.Error("unselected entry was removed")
	}
	if recorder.purgedCalls != 1 || recorder.purged != 1 {
		t.Errorf("recorder purged = %d over %d calls, want 1 over 1", recorder.purged, recorder.purgedCalls)
	}
}

func TestPurgeSelectionWithNothingSelected(t *testing.T) {
	host := newFakeHost(newTrack("A", "B"))
	if removed := NewPurgeAction(host, newStore(t), nil).PurgeSelection(); removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}
