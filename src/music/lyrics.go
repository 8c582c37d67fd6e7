package music

// Metadata field names read from a track.
const (
	FieldArtist = "artist"
	FieldTitle  = "title"
	FieldAlbum  = "album"
)

// LyricsTagNames lists the metadata fields holding unsynced lyrics, in
// priority order.
var LyricsTagNames = []string{"unsynced lyrics", "UNSYNCEDLYRICS", "lyrics"}

// LyricsState is what the lyrics label is currently showing.
type LyricsState string

const (
	LyricsFound    LyricsState = "found"
	LyricsLoading  LyricsState = "loading"
	LyricsNotFound LyricsState = "not_found"
)

// LyricsResult is a single update pushed to the display.
type LyricsResult struct {
	State LyricsState
	Text  string
}

// Found returns a result carrying lyrics text.
func Found(text string) LyricsResult {
	return LyricsResult{State: LyricsFound, Text: text}
}

// Loading returns the transient in-progress result.
func Loading() LyricsResult {
	return LyricsResult{State: LyricsLoading}
}

// NotFound returns the terminal "no lyrics" result.
func NotFound() LyricsResult {
	return LyricsResult{State: LyricsNotFound}
}

// Outcome is the terminal state of one resolution.
type Outcome string

const (
	FoundViaMetadata Outcome = "metadata"
	FoundViaCache    Outcome = "cache"
	FoundViaProvider Outcome = "provider"
	OutcomeNotFound  Outcome = "not_found"
)
