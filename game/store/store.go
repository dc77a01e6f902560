// Package store provides SQLite-backed storage for match sessions, card usage
// and archived turn logs.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/wricardo/hextactics/game/engine"
	"github.com/wricardo/hextactics/game/hex"
	"github.com/wricardo/hextactics/game/turn"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// SessionRow is a persisted session. Snapshot holds the engine snapshot as JSON.
type SessionRow struct {
	ID             string `db:"id"`
	LevelID        string `db:"level_id"`
	CampaignID     string `db:"campaign_id"`
	Class          string `db:"class"`
	Seed           int64  `db:"seed"`
	CreatedAt      int64  `db:"created_at"`
	LastAccessedAt int64  `db:"last_accessed_at"`
	Snapshot       string `db:"snapshot"`
}

// Created returns CreatedAt as a time.
func (r SessionRow) Created() time.Time { return time.UnixMilli(r.CreatedAt) }

// LastAccessed returns LastAccessedAt as a time.
func (r SessionRow) LastAccessed() time.Time { return time.UnixMilli(r.LastAccessedAt) }

// UsageRow is one recorded card event.
type UsageRow struct {
	SessionID string        `db:"session_id"`
	CardID    string        `db:"card_id"`
	Action    string        `db:"action"`
	Row       sql.NullInt64 `db:"pos_row"`
	Col       sql.NullInt64 `db:"pos_col"`
	At        int64         `db:"at"`
}

// Position returns the cell of the event, if one was recorded.
func (u UsageRow) Position() (hex.Coord, bool) {
	if !u.Row.Valid || !u.Col.Valid {
		return hex.Coord{}, false
	}
	return hex.Coord{Row: int(u.Row.Int64), Col: int(u.Col.Int64)}, true
}

// UsageCount aggregates card events across sessions.
type UsageCount struct {
	CardID string `db:"card_id" json:"card_id"`
	Action string `db:"action" json:"action"`
	Count  int    `db:"n" json:"count"`
}

type logRow struct {
	Seq     int    `db:"seq"`
	Turn    int    `db:"turn"`
	Phase   string `db:"phase"`
	Message string `db:"message"`
	At      int64  `db:"at"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		level_id TEXT NOT NULL,
		campaign_id TEXT NOT NULL DEFAULT '',
		class TEXT NOT NULL,
		seed INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		last_accessed_at INTEGER NOT NULL,
		snapshot TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS card_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		card_id TEXT NOT NULL,
		action TEXT NOT NULL,
		pos_row INTEGER,
		pos_col INTEGER,
		at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turn_log (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		turn INTEGER NOT NULL,
		phase TEXT NOT NULL,
		message TEXT NOT NULL,
		at INTEGER NOT NULL,
		PRIMARY KEY (session_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_card_usage_card ON card_usage(card_id);
	CREATE INDEX IF NOT EXISTS idx_card_usage_session ON card_usage(session_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveSession inserts or replaces a session row.
func (db *DB) SaveSession(r SessionRow) error {
	_, err := db.conn.NamedExec(`INSERT INTO sessions
		(id, level_id, campaign_id, class, seed, created_at, last_accessed_at, snapshot)
		VALUES (:id, :level_id, :campaign_id, :class, :seed, :created_at, :last_accessed_at, :snapshot)
		ON CONFLICT(id) DO UPDATE SET
			level_id = excluded.level_id,
			campaign_id = excluded.campaign_id,
			class = excluded.class,
			seed = excluded.seed,
			last_accessed_at = excluded.last_accessed_at,
			snapshot = excluded.snapshot`, r)
	if err != nil {
		return fmt.Errorf("save session %s: %w", r.ID, err)
	}
	return nil
}

// LoadSession reads a session row.
func (db *DB) LoadSession(id string) (*SessionRow, error) {
	var r SessionRow
	err := db.conn.Get(&r, "SELECT * FROM sessions WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteSession removes a session together with its usage and log rows.
func (db *DB) DeleteSession(id string) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if _, err := tx.Exec("DELETE FROM card_usage WHERE session_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM turn_log WHERE session_id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// SessionIDs lists every stored session, oldest first.
func (db *DB) SessionIDs() ([]string, error) {
	var ids []string
	err := db.conn.Select(&ids, "SELECT id FROM sessions ORDER BY created_at, id")
	return ids, err
}

// SessionExists reports whether a session row exists.
func (db *DB) SessionExists(id string) bool {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM sessions WHERE id = ?", id); err != nil {
		return false
	}
	return n > 0
}

// RecordCardUsage appends a card event. at may be nil.
func (db *DB) RecordCardUsage(sessionID, cardID, action string, at *hex.Coord) error {
	var row, col sql.NullInt64
	if at != nil {
		row = sql.NullInt64{Int64: int64(at.Row), Valid: true}
		col = sql.NullInt64{Int64: int64(at.Col), Valid: true}
	}
	_, err := db.conn.Exec(
		"INSERT INTO card_usage (session_id, card_id, action, pos_row, pos_col, at) VALUES (?, ?, ?, ?, ?, ?)",
		sessionID, cardID, action, row, col, time.Now().UnixMilli(),
	)
	return err
}

// SessionUsage returns the card events of one session in insertion order.
func (db *DB) SessionUsage(sessionID string) ([]UsageRow, error) {
	var rows []UsageRow
	err := db.conn.Select(&rows,
		"SELECT session_id, card_id, action, pos_row, pos_col, at FROM card_usage WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	return rows, err
}

// UsageSummary counts events per card and action across all sessions.
func (db *DB) UsageSummary() ([]UsageCount, error) {
	var counts []UsageCount
	err := db.conn.Select(&counts,
		"SELECT card_id, action, COUNT(*) AS n FROM card_usage GROUP BY card_id, action ORDER BY card_id, action",
	)
	return counts, err
}

// ArchiveLog stores turn log entries. Entries already archived are skipped.
func (db *DB) ArchiveLog(sessionID string, entries []turn.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err := tx.Exec(
			"INSERT OR IGNORE INTO turn_log (session_id, seq, turn, phase, message, at) VALUES (?, ?, ?, ?, ?, ?)",
			sessionID, e.Seq, e.Turn, string(e.Phase), e.Message, e.Timestamp.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("archive entry %d: %w", e.Seq, err)
		}
	}

	return tx.Commit()
}

// TurnLog returns archived entries with a sequence number above afterSeq,
// oldest first. limit <= 0 returns everything.
func (db *DB) TurnLog(sessionID string, afterSeq, limit int) ([]turn.Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []logRow
	err := db.conn.Select(&rows,
		"SELECT seq, turn, phase, message, at FROM turn_log WHERE session_id = ? AND seq > ? ORDER BY seq LIMIT ?",
		sessionID, afterSeq, limit,
	)
	if err != nil {
		return nil, err
	}
	entries := make([]turn.Entry, len(rows))
	for i, r := range rows {
		entries[i] = turn.Entry{
			Seq:       r.Seq,
			Turn:      r.Turn,
			Phase:     turn.Phase(r.Phase),
			Message:   r.Message,
			Timestamp: time.UnixMilli(r.At),
		}
	}
	return entries, nil
}

// LastArchivedSeq is the highest archived sequence number of a session, or 0.
func (db *DB) LastArchivedSeq(sessionID string) (int, error) {
	var seq sql.NullInt64
	if err := db.conn.Get(&seq, "SELECT MAX(seq) FROM turn_log WHERE session_id = ?", sessionID); err != nil {
		return 0, err
	}
	return int(seq.Int64), nil
}

// Recorder adapts the database to engine.UsageRecorder for one session.
// Failures are logged, never returned to the match.
func (db *DB) Recorder(sessionID string, logger *zap.Logger) engine.UsageRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &recorder{db: db, sessionID: sessionID, logger: logger}
}

type recorder struct {
	db        *DB
	sessionID string
	logger    *zap.Logger
}

func (r *recorder) RecordCardUsage(cardID, action string, at *hex.Coord) {
	if err := r.db.RecordCardUsage(r.sessionID, cardID, action, at); err != nil {
		r.logger.Warn("failed to record card usage",
			zap.String("session", r.sessionID),
			zap.String("card", cardID),
			zap.String("action", action),
			zap.Error(err))
	}
}
