package scrobbler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jfmyers9/lastfmkit/pkg/lastfm"
	_ "modernc.org/sqlite"
)

// Queue manages a persistent queue of scrobbles using SQLite
type Queue struct {
	db *sql.DB
}

// QueuedScrobble represents a scrobble in the queue
type QueuedScrobble struct {
	ID        int64
	Scrobble  lastfm.Scrobble
	Scrobbled bool   // Accepted, or ignored by Last.fm and not worth retrying
	Error     string // Last failure or ignore reason
	Attempts  int
}

// NewQueue creates a new scrobble queue backed by SQLite
func NewQueue(dbPath string) (*Queue, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool size to 1 for in-memory databases to ensure consistency
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000", // Wait up to 10 seconds on lock
		"PRAGMA synchronous = NORMAL", // Balance between safety and performance
		"PRAGMA journal_mode = WAL",   // Write-Ahead Logging for concurrent access
		"PRAGMA temp_store = MEMORY",  // Use memory for temp tables
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS scrobbles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			track_name TEXT NOT NULL,
			artist TEXT NOT NULL,
			album TEXT NOT NULL DEFAULT '',
			album_artist TEXT NOT NULL DEFAULT '',
			duration INTEGER NOT NULL DEFAULT 0,
			track_number INTEGER NOT NULL DEFAULT 0,
			mbid TEXT NOT NULL DEFAULT '',
			chosen_by_user BOOLEAN NOT NULL DEFAULT 1,
			timestamp INTEGER NOT NULL,
			scrobbled BOOLEAN DEFAULT 0,
			error TEXT,
			attempts INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);

		CREATE INDEX IF NOT EXISTS idx_scrobbled ON scrobbles(scrobbled, timestamp);
		CREATE INDEX IF NOT EXISTS idx_timestamp ON scrobbles(timestamp);
	`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Queue{db: db}, nil
}

// Close closes the database connection
func (q *Queue) Close() error {
	if q.db != nil {
		return q.db.Close()
	}
	return nil
}

// Add adds a new scrobble to the queue
func (q *Queue) Add(ctx context.Context, s lastfm.Scrobble) (int64, error) {
	query := `
		INSERT INTO scrobbles (track_name, artist, album, album_artist, duration,
			track_number, mbid, chosen_by_user, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := q.db.ExecContext(ctx, query,
		s.Track.Track,
		s.Track.Artist,
		s.Track.Album,
		s.Track.AlbumArtist,
		s.Track.Duration,
		s.Track.TrackNumber,
		s.Track.MBTrackID,
		!s.NotChosenByUser,
		s.Timestamp.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scrobble: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// MarkScrobbled marks a scrobble as successfully scrobbled
func (q *Queue) MarkScrobbled(ctx context.Context, id int64) error {
	return q.updateOne(ctx, "UPDATE scrobbles SET scrobbled = 1, error = NULL WHERE id = ?", id)
}

// MarkScrobbledBatch marks multiple scrobbles as successfully scrobbled
func (q *Queue) MarkScrobbledBatch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "UPDATE scrobbles SET scrobbled = 1, error = NULL WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("failed to mark scrobble %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// MarkIgnored resolves a scrobble that Last.fm ignored. It is kept with
// the reason but is no longer pending.
func (q *Queue) MarkIgnored(ctx context.Context, id int64, reason string) error {
	return q.updateOne(ctx, "UPDATE scrobbles SET scrobbled = 1, error = ? WHERE id = ?", reason, id)
}

// MarkError records a failed submission attempt. The scrobble stays pending.
func (q *Queue) MarkError(ctx context.Context, id int64, errMsg string) error {
	return q.updateOne(ctx, "UPDATE scrobbles SET error = ?, attempts = attempts + 1 WHERE id = ?", errMsg, id)
}

// updateOne runs an update whose last argument is the row id and fails if
// the row does not exist.
func (q *Queue) updateOne(ctx context.Context, query string, args ...any) error {
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update scrobble: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("scrobble with id %d not found", args[len(args)-1])
	}

	return nil
}

const selectColumns = `
	SELECT id, track_name, artist, album, album_artist, duration, track_number, mbid,
		chosen_by_user, timestamp, scrobbled, COALESCE(error, ''), attempts
	FROM scrobbles
`

// Pending retrieves pending (unscrobbled) scrobbles, oldest first.
// A limit of zero returns all of them.
func (q *Queue) Pending(ctx context.Context, limit int) ([]QueuedScrobble, error) {
	query := selectColumns + " WHERE scrobbled = 0 ORDER BY timestamp ASC, id ASC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return q.query(ctx, query)
}

// All retrieves every scrobble in the queue, newest first
func (q *Queue) All(ctx context.Context) ([]QueuedScrobble, error) {
	return q.query(ctx, selectColumns+" ORDER BY timestamp DESC, id DESC")
}

func (q *Queue) query(ctx context.Context, query string) ([]QueuedScrobble, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrobbles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scrobbles []QueuedScrobble
	for rows.Next() {
		var (
			qs            QueuedScrobble
			chosenByUser  bool
			timestampUnix int64
			track         = &qs.Scrobble.Track
		)

		err := rows.Scan(
			&qs.ID,
			&track.Track,
			&track.Artist,
			&track.Album,
			&track.AlbumArtist,
			&track.Duration,
			&track.TrackNumber,
			&track.MBTrackID,
			&chosenByUser,
			&timestampUnix,
			&qs.Scrobbled,
			&qs.Error,
			&qs.Attempts,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scrobble: %w", err)
		}

		qs.Scrobble.NotChosenByUser = !chosenByUser
		qs.Scrobble.Timestamp = time.Unix(timestampUnix, 0)
		scrobbles = append(scrobbles, qs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scrobbles: %w", err)
	}

	return scrobbles, nil
}

// Cleanup removes old scrobbled records to prevent unbounded growth
// Keeps scrobbles newer than the given age, and always keeps unscrobbled ones
func (q *Queue) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	result, err := q.db.ExecContext(ctx, "DELETE FROM scrobbles WHERE scrobbled = 1 AND timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old scrobbles: %w", err)
	}

	return result.RowsAffected()
}

// CleanupExpired removes pending scrobbles older than Last.fm accepts.
func (q *Queue) CleanupExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-MaxScrobbleAge).Unix()

	result, err := q.db.ExecContext(ctx, "DELETE FROM scrobbles WHERE scrobbled = 0 AND timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired scrobbles: %w", err)
	}

	return result.RowsAffected()
}

// Count returns the number of scrobbles in the queue
// If includeScrobbled is false, only counts pending scrobbles
func (q *Queue) Count(ctx context.Context, includeScrobbled bool) (int, error) {
	query := "SELECT COUNT(*) FROM scrobbles"
	if !includeScrobbled {
		query += " WHERE scrobbled = 0"
	}

	var count int
	if err := q.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count scrobbles: %w", err)
	}

	return count, nil
}
