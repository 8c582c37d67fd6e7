package music

import (
	"fmt"
	"strings"
	"time"
)

// Track is a host-owned playlist item. Consumers borrow a *Track for the
// duration of a call and compare tracks by pointer. Metadata is guarded by
// the owning host's metadata lock.
type Track struct {
	ID        string
	Path      string
	Format    string
	Metadata  map[string]string
	AddedDate time.Time
}

// NewTrack creates a track with a fresh ID for the given file path.
func NewTrack(path string, metadata map[string]string) *Track {
	if metadata == nil {
		metadata = make(map[string]string)
	}
	return &Track{
		ID:        generateID(),
		Path:      path,
		Metadata:  metadata,
		AddedDate: time.Now(),
	}
}

// Validate validates the track fields.
func (t *Track) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("track id cannot be empty")
	}
	if strings.TrimSpace(t.Path) == "" {
		return fmt.Errorf("track path cannot be empty")
	}
	if len(t.Path) > 1000 {
		return fmt.Errorf("track path cannot exceed 1000 characters, got %d: path -> %s", len(t.Path), t.Path)
	}
	return nil
}

// TrackIdentity is the (artist, title) pair lyrics are cached under.
// Equality is exact string equality.
type TrackIdentity struct {
	Artist string
	Title  string
}

// Complete reports whether both artist and title are present.
func (id TrackIdentity) Complete() bool {
	return id.Artist != "" && id.Title != ""
}

// CacheKey is the file name lyrics for id are stored under. Slashes in either
// field become underscores; a literal "-" is not escaped, so "A-B"/"C" and
// "A"/"B-C" share a key. The separator also guarantees a key is never "." or "..".
func (id TrackIdentity) CacheKey() string {
	return strings.ReplaceAll(id.Artist, "/", "_") + "-" + strings.ReplaceAll(id.Title, "/", "_")
}

func (id TrackIdentity) String() string {
	return id.Artist + " - " + id.Title
}
