package tag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/contre95/lyricbar/src/music"
	"github.com/dhowden/tag"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
)

// UnsyncedLyricsField is the metadata name used for ID3 USLT frames.
const UnsyncedLyricsField = "unsynced lyrics"

// TagReader reads playlist metadata from audio files using the dhowden/tag library,
// with format specific readers for lyric frames it does not expose by name.
type TagReader struct{}

// NewTagReader creates a new TagReader
func NewTagReader() music.TagReader {
	return &TagReader{}
}

// ReadFileTags reads the tags of a music file into a new track.
func (r *TagReader) ReadFileTags(ctx context.Context, filePath string) (*music.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	tags, err := tag.ReadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	meta := make(map[string]string)
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			meta[key] = value
		}
	}
	set(music.FieldArtist, tags.Artist())
	set(music.FieldTitle, tags.Title())
	set(music.FieldAlbum, tags.Album())
	set("album artist", tags.AlbumArtist())
	set("composer", tags.Composer())
	set("genre", tags.Genre())
	if year := tags.Year(); year > 0 {
		meta["year"] = strconv.Itoa(year)
	}
	if trackNumber, _ := tags.Track(); trackNumber > 0 {
		meta["track"] = strconv.Itoa(trackNumber)
	}
	if lyrics := tags.Lyrics(); lyrics != "" {
		meta["lyrics"] = lyrics
	}

	track := music.NewTrack(filePath, meta)
	track.Format = string(tags.FileType())
	if track.Format == "" {
		track.Format = strings.ToUpper(strings.TrimPrefix(filepath.Ext(filePath), "."))
	}

	switch tags.FileType() {
	case tag.MP3:
		r.readID3Frames(filePath, meta)
	case tag.FLAC:
		r.readVorbisComments(filePath, meta)
	}

	slog.Debug("Read file tags", "path", filePath, "format", track.Format, "fields", len(meta))
	return track, nil
}

// readID3Frames adds USLT lyrics and TXXX user text frames.
func (r *TagReader) readID3Frames(filePath string, meta map[string]string) {
	id3, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		slog.Debug("Could not parse ID3v2 frames", "path", filePath, "error", err)
		return
	}
	defer id3.Close()

	for _, frame := range id3.GetFrames(id3.CommonID("Unsynchronised lyrics/text transcription")) {
		if uslt, ok := frame.(id3v2.UnsynchronisedLyricsFrame); ok && uslt.Lyrics != "" {
			meta[UnsyncedLyricsField] = uslt.Lyrics
			break
		}
	}
	for _, frame := range id3.GetFrames(id3.CommonID("User defined text information frame")) {
		if txxx, ok := frame.(id3v2.UserDefinedTextFrame); ok && txxx.Description != "" && txxx.Value != "" {
			if _, exists := meta[txxx.Description]; !exists {
				meta[txxx.Description] = txxx.Value
			}
		}
	}
}

// readVorbisComments adds every vorbis comment with its field name as written.
func (r *TagReader) readVorbisComments(filePath string, meta map[string]string) {
	file, err := os.Open(filePath)
	if err != nil {
		slog.Debug("Could not open FLAC file", "path", filePath, "error", err)
		return
	}
	defer file.Close()

	// Only the metadata blocks are read; the audio frames may be missing.
	f, err := goflac.ParseMetadata(file)
	if err != nil {
		slog.Debug("Could not parse FLAC metadata", "path", filePath, "error", err)
		return
	}
	for _, block := range f.Meta {
		if block.Type != goflac.VorbisComment {
			continue
		}
		comments, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			slog.Debug("Could not parse vorbis comments", "path", filePath, "error", err)
			return
		}
		for _, comment := range comments.Comments {
			key, value, ok := strings.Cut(comment, "=")
			if !ok || key == "" || value == "" {
				continue
			}
			if _, exists := meta[key]; !exists {
				meta[key] = value
			}
		}
		return
	}
}
