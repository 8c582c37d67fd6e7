package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/contre95/lyricbar/src/music"
	"github.com/gofrs/flock"
	gap "github.com/muesli/go-app-paths"
)

const appName = "lyricbar"

// Entry describes one cached lyrics file.
type Entry struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Store keeps lyrics as plain text files, one per (artist, title), in a
// single directory. There is no eviction.
type Store struct {
	dir  string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewStore creates a store rooted at dir. The directory is created by EnsureReady.
func NewStore(dir string) *Store {
	dir = filepath.Clean(dir)
	return &Store{
		dir:  dir,
		lock: flock.New(dir + ".lock"),
	}
}

// DefaultDir returns $XDG_CACHE_HOME/lyricbar/lyrics, falling back to ~/.cache.
func DefaultDir() (string, error) {
	dir, err := gap.NewScope(gap.User, appName).CacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	return filepath.Join(dir, "lyrics"), nil
}

// Dir returns the directory holding cache entries.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureReady creates the cache directory and all its parents.
func (s *Store) EnsureReady() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", s.dir, err)
	}
	return nil
}

// Key derives the file name for id.
func Key(id music.TrackIdentity) string {
	return id.CacheKey()
}

// Path returns the cache file location for id.
func (s *Store) Path(id music.TrackIdentity) string {
	return filepath.Join(s.dir, Key(id))
}

// Has reports whether an entry exists for id.
func (s *Store) Has(id music.TrackIdentity) bool {
	if !id.Complete() {
		return false
	}
	_, err := os.Stat(s.Path(id))
	return err == nil
}

// Get returns the cached lyrics for id. Any failure is logged and reported as a miss.
func (s *Store) Get(id music.TrackIdentity) (string, bool) {
	if !id.Complete() {
		return "", false
	}
	path := s.Path(id)

	unlock := s.acquire(false)
	defer unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Lyrics not cached", "path", path)
		} else {
			slog.Warn("Failed to read cached lyrics", "path", path, "error", err)
		}
		return "", false
	}
	return string(data), true
}

// Put stores text for id, replacing any previous entry. The file is opened
// before anything is written, so an open failure leaves an old entry intact.
func (s *Store) Put(id music.TrackIdentity, text string) bool {
	if !id.Complete() {
		return false
	}
	path := s.Path(id)

	unlock := s.acquire(true)
	defer unlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		slog.Error("Could not open file for writing", "path", path, "error", err)
		return false
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		slog.Error("Failed to write cached lyrics", "path", path, "error", err)
		return false
	}
	if err := f.Close(); err != nil {
		slog.Error("Failed to close cached lyrics file", "path", path, "error", err)
		return false
	}
	return true
}

// Remove deletes the entry for id. A missing entry is not an error.
func (s *Store) Remove(id music.TrackIdentity) error {
	if !id.Complete() {
		return nil
	}

	unlock := s.acquire(true)
	defer unlock()

	if err := os.Remove(s.Path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove cached lyrics: %w", err)
	}
	return nil
}

// List returns every cached entry sorted by key.
func (s *Store) List() ([]Entry, error) {
	unlock := s.acquire(false)
	defer unlock()

	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			slog.Debug("Skipping cache entry", "name", de.Name(), "error", err)
			continue
		}
		entries = append(entries, Entry{Key: de.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return entries, nil
}

// Count returns the number of cached entries.
func (s *Store) Count() (int, error) {
	entries, err := s.List()
	return len(entries), err
}

// acquire serialises file operations within this process and takes the
// cross-process advisory lock. A lock failure is logged and the operation
// continues unlocked.
func (s *Store) acquire(exclusive bool) func() {
	s.mu.Lock()

	var err error
	if exclusive {
		err = s.lock.Lock()
	} else {
		err = s.lock.RLock()
	}
	if err != nil {
		slog.Debug("Cache lock unavailable, continuing without it", "path", s.lock.Path(), "error", err)
		return s.mu.Unlock
	}

	return func() {
		if err := s.lock.Unlock(); err != nil {
			slog.Warn("Failed to release cache lock", "path", s.lock.Path(), "error", err)
		}
		s.mu.Unlock()
	}
}
