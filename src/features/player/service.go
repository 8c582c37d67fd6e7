package player

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/contre95/lyricbar/src/music"
)

const updateBuffer = 64

// Label is what the lyrics label currently shows.
type Label struct {
	TrackID   string            `json:"track_id,omitempty"`
	Artist    string            `json:"artist,omitempty"`
	Title     string            `json:"title,omitempty"`
	State     music.LyricsState `json:"state,omitempty"`
	Text      string            `json:"text,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Sink receives every label change made on the UI goroutine.
type Sink interface {
	LabelChanged(label Label)
}

// TrackListener is called after the playing track changes.
type TrackListener func(track *music.Track)

// TrackView is a snapshot of a playlist item for presentation.
type TrackView struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Artist   string `json:"artist"`
	Title    string `json:"title"`
	Album    string `json:"album,omitempty"`
	Selected bool   `json:"selected"`
	Playing  bool   `json:"playing"`
}

type labelUpdate struct {
	track  *music.Track
	result music.LyricsResult
	// done marks a flush barrier.
	done chan struct{}
}

// Service is the in-process player. It owns the playlist, the selection and
// the now-playing track, and implements music.Host.
type Service struct {
	// meta guards track metadata.
	meta sync.RWMutex

	mu        sync.RWMutex
	tracks    []*music.Track
	selected  map[string]bool
	current   *music.Track
	listeners []TrackListener

	labelMu sync.RWMutex
	label   Label
	sinks   []Sink

	updates chan labelUpdate
	stopped chan struct{}

	repo   music.TrackRepository
	reader music.TagReader
}

// NewService creates a new player. repo may be nil, in which case the
// playlist lives in memory only.
func NewService(repo music.TrackRepository, reader music.TagReader) *Service {
	return &Service{
		selected: make(map[string]bool),
		updates:  make(chan labelUpdate, updateBuffer),
		stopped:  make(chan struct{}),
		repo:     repo,
		reader:   reader,
	}
}

// OnTrackChanged registers a listener for track changes.
func (s *Service) OnTrackChanged(listener TrackListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// AddSink registers a sink for label changes.
func (s *Service) AddSink(sink Sink) {
	s.labelMu.Lock()
	defer s.labelMu.Unlock()
	s.sinks = append(s.sinks, sink)
}

// Load replaces the playlist with the tracks stored in the repository.
func (s *Service) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	tracks, err := s.repo.GetTracks(ctx)
	if err != nil {
		slog.Error("Failed to load playlist", "error", err)
		return fmt.Errorf("failed to load playlist: %w", err)
	}
	s.mu.Lock()
	s.tracks = tracks
	s.mu.Unlock()
	slog.Info("Playlist loaded", "tracks", len(tracks))
	return nil
}

// Add reads the tags of the file at path and appends it to the playlist.
func (s *Service) Add(ctx context.Context, path string) (*music.Track, error) {
	slog.Debug("Add track called", "path", path)
	if s.reader == nil {
		return nil, fmt.Errorf("no tag reader configured")
	}
	track, err := s.reader.ReadFileTags(ctx, path)
	if err != nil {
		slog.Error("Failed to read track tags", "path", path, "error", err)
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}
	if err := track.Validate(); err != nil {
		return nil, err
	}
	return track, s.Append(ctx, track)
}

// Append adds an already built track to the playlist.
func (s *Service) Append(ctx context.Context, track *music.Track) error {
	if s.repo != nil {
		if err := s.repo.AddTrack(ctx, track); err != nil {
			slog.Error("Failed to store track", "trackID", track.ID, "error", err)
			return fmt.Errorf("failed to store track: %w", err)
		}
	}
	s.mu.Lock()
	s.tracks = append(s.tracks, track)
	s.mu.Unlock()
	slog.Info("Track added to playlist", "trackID", track.ID, "path", track.Path)
	return nil
}

// Remove deletes a track from the playlist. Removing the playing track stops playback.
func (s *Service) Remove(ctx context.Context, id string) error {
	track := s.Find(id)
	if track == nil {
		return fmt.Errorf("track %s not found", id)
	}
	if s.repo != nil {
		if err := s.repo.DeleteTrack(ctx, id); err != nil {
			return fmt.Errorf("failed to delete track: %w", err)
		}
	}
	s.mu.Lock()
	s.tracks = slices.DeleteFunc(s.tracks, func(t *music.Track) bool { return t.ID == id })
	delete(s.selected, id)
	playing := s.current == track
	s.mu.Unlock()
	if playing {
		s.Stop()
	}
	return nil
}

// Find returns the playlist track with the given id, or nil.
func (s *Service) Find(id string) *music.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, track := range s.tracks {
		if track.ID == id {
			return track
		}
	}
	return nil
}

// Select replaces the selection with the given track ids. Unknown ids are ignored.
func (s *Service) Select(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]bool, len(ids))
	for _, track := range s.tracks {
		if slices.Contains(ids, track.ID) {
			s.selected[track.ID] = true
		}
	}
	return len(s.selected)
}

// Play makes the track with the given id the playing one and notifies listeners.
func (s *Service) Play(id string) (*music.Track, error) {
	track := s.Find(id)
	if track == nil {
		return nil, fmt.Errorf("track %s not found", id)
	}
	s.mu.Lock()
	s.current = track
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	s.LockMeta()
	label := Label{
		TrackID:   track.ID,
		Artist:    s.metaValue(track, music.FieldArtist),
		Title:     s.metaValue(track, music.FieldTitle),
		UpdatedAt: time.Now(),
	}
	s.UnlockMeta()
	s.setLabel(label)

	slog.Info("Now playing", "trackID", track.ID, "artist", label.Artist, "title", label.Title)
	for _, listener := range listeners {
		listener(track)
	}
	return track, nil
}

// Stop clears the playing track.
func (s *Service) Stop() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	s.setLabel(Label{UpdatedAt: time.Now()})
	slog.Info("Playback stopped")
}

// Label returns the current label.
func (s *Service) Label() Label {
	s.labelMu.RLock()
	defer s.labelMu.RUnlock()
	return s.label
}

// Views returns a snapshot of the playlist.
func (s *Service) Views() []TrackView {
	s.mu.RLock()
	tracks := slices.Clone(s.tracks)
	current := s.current
	selected := make(map[string]bool, len(s.selected))
	for id := range s.selected {
		selected[id] = true
	}
	s.mu.RUnlock()

	s.LockMeta()
	defer s.UnlockMeta()
	views := make([]TrackView, 0, len(tracks))
	for _, track := range tracks {
		views = append(views, TrackView{
			ID:       track.ID,
			Path:     track.Path,
			Artist:   s.metaValue(track, music.FieldArtist),
			Title:    s.metaValue(track, music.FieldTitle),
			Album:    s.metaValue(track, music.FieldAlbum),
			Selected: selected[track.ID],
			Playing:  track == current,
		})
	}
	return views
}

// Run applies queued lyrics updates to the label until ctx is done. It is
// the only goroutine that changes the label after a ShowLyrics call.
func (s *Service) Run(ctx context.Context) {
	defer close(s.stopped)
	for {
		select {
		case u := <-s.updates:
			s.apply(u)
		case <-ctx.Done():
			return
		}
	}
}

// Flush waits until every update queued before the call has been applied.
func (s *Service) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case s.updates <- labelUpdate{done: done}:
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) apply(u labelUpdate) {
	if u.done != nil {
		close(u.done)
		return
	}
	if s.NowPlaying() != u.track {
		return
	}
	s.LockMeta()
	label := Label{
		TrackID:   u.track.ID,
		Artist:    s.metaValue(u.track, music.FieldArtist),
		Title:     s.metaValue(u.track, music.FieldTitle),
		State:     u.result.State,
		Text:      u.result.Text,
		UpdatedAt: time.Now(),
	}
	s.UnlockMeta()
	s.setLabel(label)
}

func (s *Service) setLabel(label Label) {
	s.labelMu.Lock()
	s.label = label
	sinks := slices.Clone(s.sinks)
	s.labelMu.Unlock()
	for _, sink := range sinks {
		sink.LabelChanged(label)
	}
}

// NowPlaying returns the playing track, or nil when stopped.
func (s *Service) NowPlaying() *music.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// ShowLyrics queues result for the UI goroutine.
func (s *Service) ShowLyrics(track *music.Track, result music.LyricsResult) {
	select {
	case s.updates <- labelUpdate{track: track, result: result}:
	case <-s.stopped:
		slog.Debug("Player stopped, dropping lyrics update", "trackID", track.ID)
	}
}

// LockMeta takes the metadata lock for reading.
func (s *Service) LockMeta() { s.meta.RLock() }

// UnlockMeta releases the metadata lock.
func (s *Service) UnlockMeta() { s.meta.RUnlock() }

// FindMeta looks a field up by its exact, case-sensitive name. The caller
// must hold the metadata lock.
func (s *Service) FindMeta(track *music.Track, name string) (string, bool) {
	v, ok := track.Metadata[name]
	return v, ok
}

// UpdateMeta sets a metadata field under the write lock.
func (s *Service) UpdateMeta(track *music.Track, name, value string) {
	s.meta.Lock()
	defer s.meta.Unlock()
	track.Metadata[name] = value
}

// Tracks returns the playlist in order.
func (s *Service) Tracks() []*music.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tracks)
}

// IsSelected reports whether track is part of the current selection.
func (s *Service) IsSelected(track *music.Track) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected[track.ID]
}

func (s *Service) metaValue(track *music.Track, name string) string {
	return track.Metadata[name]
}
