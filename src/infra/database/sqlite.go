package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/contre95/lyricbar/src/music"
	_ "github.com/mattn/go-sqlite3"
)

// SqlitePlaylist is a SQLite implementation of music.TrackRepository.
type SqlitePlaylist struct {
	db *sql.DB
}

// NewSqlitePlaylist creates a new SqlitePlaylist.
func NewSqlitePlaylist(path string) (*SqlitePlaylist, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SqlitePlaylist{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tracks (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			format TEXT,
			position INTEGER NOT NULL,
			added_date TEXT
		);

		CREATE TABLE IF NOT EXISTS track_metadata (
			track_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT,
			PRIMARY KEY (track_id, key),
			FOREIGN KEY (track_id) REFERENCES tracks(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_position ON tracks(position);
	`)
	return err
}

// Close closes the database.
func (d *SqlitePlaylist) Close() error {
	return d.db.Close()
}

// AddTrack appends a track and its metadata to the playlist.
func (d *SqlitePlaylist) AddTrack(ctx context.Context, track *music.Track) error {
	if err := track.Validate(); err != nil {
		slog.Error("AddTrack: validation failed", "error", err, "trackID", track.ID)
		return err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tracks (id, path, format, position, added_date)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM tracks), ?)
	`, track.ID, track.Path, track.Format, track.AddedDate.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	for key, value := range track.Metadata {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO track_metadata (track_id, key, value)
			VALUES (?, ?, ?)
		`, track.ID, key, value)
		if err != nil {
			return fmt.Errorf("failed to insert metadata %q: %w", key, err)
		}
	}

	return tx.Commit()
}

// GetTracks returns the playlist in order.
func (d *SqlitePlaylist) GetTracks(ctx context.Context) ([]*music.Track, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, path, format, added_date FROM tracks ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []*music.Track
	byID := make(map[string]*music.Track)
	for rows.Next() {
		var (
			track     music.Track
			format    sql.NullString
			addedDate sql.NullString
		)
		if err := rows.Scan(&track.ID, &track.Path, &format, &addedDate); err != nil {
			return nil, err
		}
		track.Format = format.String
		if addedDate.Valid {
			if t, err := time.Parse(time.RFC3339, addedDate.String); err == nil {
				track.AddedDate = t
			}
		}
		track.Metadata = make(map[string]string)
		tracks = append(tracks, &track)
		byID[track.ID] = &track
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	metaRows, err := d.db.QueryContext(ctx, `SELECT track_id, key, value FROM track_metadata`)
	if err != nil {
		return nil, err
	}
	defer metaRows.Close()
	for metaRows.Next() {
		var trackID, key string
		var value sql.NullString
		if err := metaRows.Scan(&trackID, &key, &value); err != nil {
			return nil, err
		}
		if track, ok := byID[trackID]; ok {
			track.Metadata[key] = value.String
		}
	}
	return tracks, metaRows.Err()
}

// DeleteTrack removes a track and its metadata.
func (d *SqlitePlaylist) DeleteTrack(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("track %s not found", id)
	}
	return nil
}
