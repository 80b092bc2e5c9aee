package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"trackbot/models"
)

type Database struct {
	db *sql.DB
}

type HistoryRecord struct {
	ID        int64
	GuildID   string
	SourceRef string
	Title     string
	Author    string
	Duration  time.Duration
	PlayedAt  time.Time
}

type MostPlayedRecord struct {
	SourceRef  string
	Title      string
	PlayCount  int
	LastPlayed time.Time
}

// New opens (creating if needed) the database at dbPath.
func New(dbPath string) (*Database, error) {
	if dbPath == "" {
		dbPath = "/app/data/trackbot.db"
	}

	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.WithField("module", "database").Infof("database initialized at %s", dbPath)
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS track_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			source_ref TEXT NOT NULL,
			title TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			played_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_track_history_played_at ON track_history(guild_id, played_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_track_history_source ON track_history(guild_id, source_ref)`,
		`CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id TEXT PRIMARY KEY,
			volume INTEGER NOT NULL,
			repeat_mode TEXT NOT NULL DEFAULT 'none',
			equalizer TEXT NOT NULL DEFAULT '[]',
			updated_at TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// RecordPlay inserts a play of track.
func (d *Database) RecordPlay(guildID string, track models.Track) error {
	_, err := d.db.Exec(
		`INSERT INTO track_history (guild_id, source_ref, title, author, duration_ms, played_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		guildID, track.SourceRef, track.Title, track.Author, track.DurationMs(), now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

// GetHistory returns the most recent plays for a guild.
func (d *Database) GetHistory(guildID string, limit int) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.db.Query(
		`SELECT id, guild_id, source_ref, title, author, duration_ms, played_at
		 FROM track_history
		 WHERE guild_id = ?
		 ORDER BY played_at DESC, id DESC
		 LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []HistoryRecord
	for rows.Next() {
		var r HistoryRecord
		var durationMs int64
		var playedAt string
		if err := rows.Scan(&r.ID, &r.GuildID, &r.SourceRef, &r.Title, &r.Author, &durationMs, &playedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.PlayedAt = parseTimestamp(playedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetMostPlayed returns the most played tracks for a guild.
func (d *Database) GetMostPlayed(guildID string, limit int) ([]MostPlayedRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.db.Query(
		`SELECT source_ref, MAX(title), COUNT(*) as play_count, MAX(played_at) as last_played
		 FROM track_history
		 WHERE guild_id = ?
		 GROUP BY source_ref
		 ORDER BY play_count DESC, last_played DESC
		 LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query most played: %w", err)
	}
	defer rows.Close()

	var records []MostPlayedRecord
	for rows.Next() {
		var r MostPlayedRecord
		var lastPlayed string
		if err := rows.Scan(&r.SourceRef, &r.Title, &r.PlayCount, &lastPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan most played row: %w", err)
		}
		r.LastPlayed = parseTimestamp(lastPlayed)
		records = append(records, r)
	}
	return records, rows.Err()
}

// LoadSettings returns the guild's saved settings; ok is false if the
// guild has never changed any.
func (d *Database) LoadSettings(guildID string) (models.GuildSettings, bool, error) {
	var settings models.GuildSettings
	var equalizer string
	err := d.db.QueryRow(
		`SELECT volume, repeat_mode, equalizer FROM guild_settings WHERE guild_id = ?`,
		guildID,
	).Scan(&settings.Volume, &settings.RepeatMode, &equalizer)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GuildSettings{}, false, nil
	}
	if err != nil {
		return models.GuildSettings{}, false, fmt.Errorf("failed to load settings: %w", err)
	}

	var gains []float64
	if err := json.Unmarshal([]byte(equalizer), &gains); err != nil {
		log.WithField("module", "database").Warnf("ignoring corrupt equalizer for %s: %v", guildID, err)
	}
	copy(settings.EQ[:], gains)
	return settings, true, nil
}

func (d *Database) SaveSettings(guildID string, settings models.GuildSettings) error {
	equalizer, err := json.Marshal(settings.EQ)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(
		`INSERT INTO guild_settings (guild_id, volume, repeat_mode, equalizer, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(guild_id) DO UPDATE SET
			volume = excluded.volume,
			repeat_mode = excluded.repeat_mode,
			equalizer = excluded.equalizer,
			updated_at = excluded.updated_at`,
		guildID, settings.Volume, settings.RepeatMode, string(equalizer), now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// timestampFormat is fixed width so that text ordering matches time ordering.
const timestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

func now() string {
	return time.Now().UTC().Format(timestampFormat)
}

// parseTimestamp accepts what we write plus SQLite's CURRENT_TIMESTAMP format.
func parseTimestamp(value string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t
		}
	}
	log.Warnf("failed to parse timestamp '%s' with all known formats", value)
	return time.Time{}
}
