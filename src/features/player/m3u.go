package player

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseM3U extracts the entry paths of an M3U playlist. Relative entries are
// resolved against baseDir.
func ParseM3U(content, baseDir string) ([]string, error) {
	var paths []string
	scanner := bufio.NewScanner(strings.NewReader(content))

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		path := strings.Trim(line, "\"'")
		if path == "" {
			continue
		}
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		paths = append(paths, path)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error parsing M3U content: %w", err)
	}
	return paths, nil
}

// GenerateM3U renders views as an extended M3U playlist.
func GenerateM3U(views []TrackView) string {
	var builder strings.Builder
	builder.WriteString("#EXTM3U\n")
	for _, view := range views {
		name := view.Title
		if view.Artist != "" {
			name = view.Artist + " - " + view.Title
		}
		fmt.Fprintf(&builder, "#EXTINF:-1,%s\n%s\n", name, view.Path)
	}
	return builder.String()
}

// ImportM3U adds every readable entry of the playlist file at path. Entries
// that fail are logged and skipped. It returns the number of tracks added.
func (s *Service) ImportM3U(ctx context.Context, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read playlist: %w", err)
	}
	paths, err := ParseM3U(string(content), filepath.Dir(path))
	if err != nil {
		return 0, err
	}

	added := 0
	for _, entry := range paths {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		if _, err := s.Add(ctx, entry); err != nil {
			slog.Warn("Skipping playlist entry", "path", entry, "error", err)
			continue
		}
		added++
	}
	slog.Info("Imported M3U playlist", "path", path, "entries", len(paths), "added", added)
	return added, nil
}
